package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the storage layer. Collections are length-prefixed with
// a varint; timestamps are stored as Unix microseconds.
var (
	// IDMUS serializes IDs.
	IDMUS = idSer{}
	// DatasetMUS serializes Datasets.
	DatasetMUS = datasetSer{}
	// ConversationMUS serializes Conversations.
	ConversationMUS = conversationSer{}
	// InquiryMUS serializes Inquiries.
	InquiryMUS = inquirySer{}
)

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

type vectorSer struct{}

func (vectorSer) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorSer) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (vectorSer) Size(v []float32) int {
	return varint.Int.Size(len(v)) + 4*len(v)
}

type stringSliceSer struct{}

func (stringSliceSer) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringSliceSer) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v = make([]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func (stringSliceSer) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

type stringMapSer struct{}

func (stringMapSer) Marshal(m map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(m), bs)
	// Iteration order does not matter for storage round-trips.
	for k, v := range m {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func (stringMapSer) Unmarshal(bs []byte) (m map[string]string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	m = make(map[string]string, length)
	var (
		k, v string
		n1   int
	)
	for i := 0; i < length; i++ {
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func (stringMapSer) Size(m map[string]string) (size int) {
	size = varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

type datasetSer struct{}

func (datasetSer) Marshal(d Dataset, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Description, bs[n:])
	n += ord.String.Marshal(d.Domain, bs[n:])
	n += ord.String.Marshal(d.PricingModel, bs[n:])
	n += raw.Float64.Marshal(d.Price, bs[n:])
	n += stringSliceSer{}.Marshal(d.Topics, bs[n:])
	n += ord.String.Marshal(d.TemporalCoverage, bs[n:])
	n += ord.String.Marshal(d.GeographicCoverage, bs[n:])
	n += varint.Int.Marshal(int(d.Visibility), bs[n:])
	n += IDMUS.Marshal(d.VendorId, bs[n:])
	n += vectorSer{}.Marshal(d.Vector, bs[n:])
	n += timeSer{}.Marshal(d.InsertedAt, bs[n:])
	n += timeSer{}.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (datasetSer) Unmarshal(bs []byte) (d Dataset, n int, err error) {
	var (
		n1         int
		visibility int
	)
	d.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Domain, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.PricingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Price, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Topics, n1, err = stringSliceSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.TemporalCoverage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.GeographicCoverage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	visibility, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Visibility = Visibility(visibility)
	d.VendorId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Vector, n1, err = vectorSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	return d, n, err
}

func (datasetSer) Size(d Dataset) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.Description)
	size += ord.String.Size(d.Domain)
	size += ord.String.Size(d.PricingModel)
	size += raw.Float64.Size(d.Price)
	size += stringSliceSer{}.Size(d.Topics)
	size += ord.String.Size(d.TemporalCoverage)
	size += ord.String.Size(d.GeographicCoverage)
	size += varint.Int.Size(int(d.Visibility))
	size += IDMUS.Size(d.VendorId)
	size += vectorSer{}.Size(d.Vector)
	size += timeSer{}.Size(d.InsertedAt)
	size += timeSer{}.Size(d.UpdatedAt)
	return size
}

type toolCallSer struct{}

func (toolCallSer) Marshal(c ToolCallRecord, bs []byte) (n int) {
	n = ord.String.Marshal(c.Name, bs)
	n += ord.String.Marshal(c.Arguments, bs[n:])
	n += ord.String.Marshal(c.Result, bs[n:])
	n += ord.String.Marshal(c.ResultText, bs[n:])
	n += ord.Bool.Marshal(c.Failed, bs[n:])
	return n
}

func (toolCallSer) Unmarshal(bs []byte) (c ToolCallRecord, n int, err error) {
	var n1 int
	c.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Arguments, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Result, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.ResultText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Failed, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	return c, n, err
}

func (toolCallSer) Size(c ToolCallRecord) int {
	return ord.String.Size(c.Name) + ord.String.Size(c.Arguments) +
		ord.String.Size(c.Result) + ord.String.Size(c.ResultText) +
		ord.Bool.Size(c.Failed)
}

type messageSer struct{}

func (messageSer) Marshal(m Message, bs []byte) (n int) {
	n = varint.Int.Marshal(int(m.Role), bs)
	n += ord.String.Marshal(m.Content, bs[n:])
	n += varint.Int.Marshal(len(m.ToolCalls), bs[n:])
	for _, c := range m.ToolCalls {
		n += toolCallSer{}.Marshal(c, bs[n:])
	}
	n += timeSer{}.Marshal(m.Timestamp, bs[n:])
	return n
}

func (messageSer) Unmarshal(bs []byte) (m Message, n int, err error) {
	var n1, role, length int
	role, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	m.Role = Role(role)
	m.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length > 0 {
		m.ToolCalls = make([]ToolCallRecord, length)
		for i := 0; i < length; i++ {
			m.ToolCalls[i], n1, err = toolCallSer{}.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	m.Timestamp, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	return m, n, err
}

func (messageSer) Size(m Message) (size int) {
	size = varint.Int.Size(int(m.Role))
	size += ord.String.Size(m.Content)
	size += varint.Int.Size(len(m.ToolCalls))
	for _, c := range m.ToolCalls {
		size += toolCallSer{}.Size(c)
	}
	size += timeSer{}.Size(m.Timestamp)
	return size
}

type entityRefSer struct{}

func (entityRefSer) Marshal(r EntityRef, bs []byte) (n int) {
	n = varint.Int.Marshal(int(r.Kind), bs)
	n += IDMUS.Marshal(r.Id, bs[n:])
	n += ord.String.Marshal(r.Label, bs[n:])
	return n
}

func (entityRefSer) Unmarshal(bs []byte) (r EntityRef, n int, err error) {
	var n1, kind int
	kind, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Kind = EntityKind(kind)
	r.Id, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Label, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return r, n, err
}

func (entityRefSer) Size(r EntityRef) int {
	return varint.Int.Size(int(r.Kind)) + IDMUS.Size(r.Id) + ord.String.Size(r.Label)
}

type conversationSer struct{}

func (conversationSer) Marshal(c Conversation, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.UserId, bs[n:])
	n += varint.Int.Marshal(len(c.Messages), bs[n:])
	for _, m := range c.Messages {
		n += messageSer{}.Marshal(m, bs[n:])
	}
	n += varint.Int.Marshal(len(c.EntityRefs), bs[n:])
	for _, r := range c.EntityRefs {
		n += entityRefSer{}.Marshal(r, bs[n:])
	}
	n += ord.Bool.Marshal(c.Deleted, bs[n:])
	n += timeSer{}.Marshal(c.InsertedAt, bs[n:])
	n += timeSer{}.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (conversationSer) Unmarshal(bs []byte) (c Conversation, n int, err error) {
	var n1, length int
	c.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.UserId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length > 0 {
		c.Messages = make([]Message, length)
		for i := 0; i < length; i++ {
			c.Messages[i], n1, err = messageSer{}.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length > 0 {
		c.EntityRefs = make([]EntityRef, length)
		for i := 0; i < length; i++ {
			c.EntityRefs[i], n1, err = entityRefSer{}.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	c.Deleted, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.InsertedAt, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.UpdatedAt, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	return c, n, err
}

func (conversationSer) Size(c Conversation) (size int) {
	size = IDMUS.Size(c.Id) + IDMUS.Size(c.UserId)
	size += varint.Int.Size(len(c.Messages))
	for _, m := range c.Messages {
		size += messageSer{}.Size(m)
	}
	size += varint.Int.Size(len(c.EntityRefs))
	for _, r := range c.EntityRefs {
		size += entityRefSer{}.Size(r)
	}
	size += ord.Bool.Size(c.Deleted)
	size += timeSer{}.Size(c.InsertedAt)
	size += timeSer{}.Size(c.UpdatedAt)
	return size
}

type payloadSer struct{}

func (payloadSer) Marshal(p Payload, bs []byte) (n int) {
	n = varint.Int.Marshal(p.Version, bs)
	n += ord.String.Marshal(p.Pricing, bs[n:])
	n += ord.String.Marshal(p.Delivery, bs[n:])
	n += ord.String.Marshal(p.Timeline, bs[n:])
	n += ord.String.Marshal(p.Terms, bs[n:])
	n += ord.String.Marshal(p.Notes, bs[n:])
	n += stringMapSer{}.Marshal(p.Extra, bs[n:])
	return n
}

func (payloadSer) Unmarshal(bs []byte) (p Payload, n int, err error) {
	var n1 int
	p.Version, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	p.Pricing, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Delivery, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Timeline, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Terms, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Notes, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Extra, n1, err = stringMapSer{}.Unmarshal(bs[n:])
	n += n1
	return p, n, err
}

func (payloadSer) Size(p Payload) int {
	return varint.Int.Size(p.Version) + ord.String.Size(p.Pricing) +
		ord.String.Size(p.Delivery) + ord.String.Size(p.Timeline) +
		ord.String.Size(p.Terms) + ord.String.Size(p.Notes) +
		stringMapSer{}.Size(p.Extra)
}

type inquirySer struct{}

func (inquirySer) Marshal(i Inquiry, bs []byte) (n int) {
	n = IDMUS.Marshal(i.Id, bs)
	n += IDMUS.Marshal(i.BuyerId, bs[n:])
	n += IDMUS.Marshal(i.VendorId, bs[n:])
	n += IDMUS.Marshal(i.DatasetId, bs[n:])
	n += IDMUS.Marshal(i.ConversationId, bs[n:])
	n += payloadSer{}.Marshal(i.BuyerInquiry, bs[n:])
	n += payloadSer{}.Marshal(i.VendorResponse, bs[n:])
	n += varint.Int.Marshal(int(i.Status), bs[n:])
	n += ord.Bool.Marshal(i.Deleted, bs[n:])
	n += timeSer{}.Marshal(i.InsertedAt, bs[n:])
	n += timeSer{}.Marshal(i.UpdatedAt, bs[n:])
	return n
}

func (inquirySer) Unmarshal(bs []byte) (i Inquiry, n int, err error) {
	var n1, status int
	i.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	i.BuyerId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.VendorId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.DatasetId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.ConversationId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.BuyerInquiry, n1, err = payloadSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.VendorResponse, n1, err = payloadSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.Status = InquiryStatus(status)
	i.Deleted, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.InsertedAt, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	i.UpdatedAt, n1, err = timeSer{}.Unmarshal(bs[n:])
	n += n1
	return i, n, err
}

func (inquirySer) Size(i Inquiry) (size int) {
	size = IDMUS.Size(i.Id) + IDMUS.Size(i.BuyerId) + IDMUS.Size(i.VendorId) +
		IDMUS.Size(i.DatasetId) + IDMUS.Size(i.ConversationId)
	size += payloadSer{}.Size(i.BuyerInquiry)
	size += payloadSer{}.Size(i.VendorResponse)
	size += varint.Int.Size(int(i.Status))
	size += ord.Bool.Size(i.Deleted)
	size += timeSer{}.Size(i.InsertedAt)
	size += timeSer{}.Size(i.UpdatedAt)
	return size
}
