package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/agoradata/agora/core"
)

// Key prefixes for different data types
const (
	datasetPrefix       = "dsrec"
	datasetVendorPrefix = "dsrecv"
	datasetIDSeq        = "dsrecseq"
	conversationPrefix  = "cvrec"
	conversationIDSeq   = "cvrecseq"
	inquiryPrefix       = "iqrec"
	inquiryVendorPrefix = "iqrecv"
	inquiryBuyerPrefix  = "iqrecb"
	inquiryIDSeq        = "iqrecseq"
)

// makeDatasetKey generates a key for a dataset by ID.
func makeDatasetKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", datasetPrefix, id))
}

// makeDatasetVendorKey generates a composite key for the vendor index.
// Format: prefix:vendorID:datasetID
func makeDatasetVendorKey(vendorID, datasetID core.ID) []byte {
	return makeCompositeKey(datasetVendorPrefix, vendorID, datasetID)
}

// makePartialDatasetVendorKey generates a partial key for vendor queries.
func makePartialDatasetVendorKey(vendorID core.ID) []byte {
	return makePartialCompositeKey(datasetVendorPrefix, vendorID)
}

// makeConversationKey generates a key for a conversation by ID.
func makeConversationKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conversationPrefix, id))
}

// makeInquiryKey generates a key for an inquiry by ID.
func makeInquiryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", inquiryPrefix, id))
}

// makeInquiryVendorKey generates a composite key for the vendor index.
// Format: prefix:vendorID:inquiryID
func makeInquiryVendorKey(vendorID, inquiryID core.ID) []byte {
	return makeCompositeKey(inquiryVendorPrefix, vendorID, inquiryID)
}

// makePartialInquiryVendorKey generates a partial key for vendor queries.
func makePartialInquiryVendorKey(vendorID core.ID) []byte {
	return makePartialCompositeKey(inquiryVendorPrefix, vendorID)
}

// makeInquiryBuyerKey generates a composite key for the buyer index.
// Format: prefix:buyerID:inquiryID
func makeInquiryBuyerKey(buyerID, inquiryID core.ID) []byte {
	return makeCompositeKey(inquiryBuyerPrefix, buyerID, inquiryID)
}

// makePartialInquiryBuyerKey generates a partial key for buyer queries.
func makePartialInquiryBuyerKey(buyerID core.ID) []byte {
	return makePartialCompositeKey(inquiryBuyerPrefix, buyerID)
}

// makeCompositeKey builds prefix:ownerID:recordID with both IDs in
// BigEndian order so lexicographic sort works correctly.
func makeCompositeKey(prefix string, ownerID, recordID core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for ownerID + 8 bytes for recordID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(recordID))
	return buf
}

// makePartialCompositeKey builds prefix:ownerID for range scans.
func makePartialCompositeKey(prefix string, ownerID core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for ownerID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ownerID))
	return buf
}
