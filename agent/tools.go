package agent

import "github.com/agoradata/agora/ai"

// Tool names form a closed set. The model cannot reach any operation
// that is not listed here.
const (
	ToolSearchDatasets      = "search_datasets"
	ToolGetDataset          = "get_dataset"
	ToolCreateInquiryDraft  = "create_inquiry_draft"
	ToolSubmitInquiry       = "submit_inquiry"
	ToolGetInquiry          = "get_inquiry"
	ToolListVendorInquiries = "list_vendor_inquiries"
)

// searchDatasetsArgs are the arguments for search_datasets.
type searchDatasetsArgs struct {
	Query        string  `json:"query"`
	TopK         int     `json:"top_k,omitempty"`
	Domain       string  `json:"domain,omitempty"`
	PricingModel string  `json:"pricing_model,omitempty"`
	MaxPrice     float64 `json:"max_price,omitempty"`
}

// getDatasetArgs are the arguments for get_dataset.
type getDatasetArgs struct {
	DatasetId uint64 `json:"dataset_id"`
}

// createInquiryDraftArgs are the arguments for create_inquiry_draft.
type createInquiryDraftArgs struct {
	DatasetId uint64 `json:"dataset_id"`
	Pricing   string `json:"pricing,omitempty"`
	Delivery  string `json:"delivery,omitempty"`
	Timeline  string `json:"timeline,omitempty"`
	Terms     string `json:"terms,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// submitInquiryArgs are the arguments for submit_inquiry.
type submitInquiryArgs struct {
	InquiryId uint64 `json:"inquiry_id"`
	Confirmed bool   `json:"confirmed"`
}

// getInquiryArgs are the arguments for get_inquiry.
type getInquiryArgs struct {
	InquiryId uint64 `json:"inquiry_id"`
}

// listVendorInquiriesArgs are the arguments for list_vendor_inquiries.
type listVendorInquiriesArgs struct {
	Statuses []string `json:"statuses,omitempty"`
}

// toolDefinitions describes the closed tool set exposed to the model.
func toolDefinitions() []ai.ToolDefinition {
	return []ai.ToolDefinition{
		{
			Name:        ToolSearchDatasets,
			Description: "Search the public dataset catalog by meaning. Use natural language describing the data the user needs. Optional filters narrow the results.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Natural language description of the data needed",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results, default 5",
					},
					"domain": map[string]any{
						"type":        "string",
						"description": "Restrict to an exact domain, e.g. Finance",
					},
					"pricing_model": map[string]any{
						"type":        "string",
						"description": "Restrict to a pricing model, e.g. subscription",
					},
					"max_price": map[string]any{
						"type":        "number",
						"description": "Exclude datasets priced above this value",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolGetDataset,
			Description: "Fetch the full record of a single dataset by its ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"dataset_id": map[string]any{
						"type":        "integer",
						"description": "The dataset ID",
					},
				},
				"required": []string{"dataset_id"},
			},
		},
		{
			Name:        ToolCreateInquiryDraft,
			Description: "Create a draft purchase inquiry for a dataset on behalf of the user. The draft is not sent to the vendor until submitted.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"dataset_id": map[string]any{
						"type":        "integer",
						"description": "The dataset to inquire about",
					},
					"pricing": map[string]any{
						"type":        "string",
						"description": "The user's pricing expectations",
					},
					"delivery": map[string]any{
						"type":        "string",
						"description": "Desired delivery mechanism",
					},
					"timeline": map[string]any{
						"type":        "string",
						"description": "When the user needs the data",
					},
					"terms": map[string]any{
						"type":        "string",
						"description": "Licensing or usage terms the user needs",
					},
					"notes": map[string]any{
						"type":        "string",
						"description": "Anything else the vendor should know",
					},
				},
				"required": []string{"dataset_id"},
			},
		},
		{
			Name:        ToolSubmitInquiry,
			Description: "Submit a draft inquiry to the vendor. Only call this after the user has explicitly confirmed they want to send it, and set confirmed to true.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"inquiry_id": map[string]any{
						"type":        "integer",
						"description": "The draft inquiry to submit",
					},
					"confirmed": map[string]any{
						"type":        "boolean",
						"description": "Must be true, and only after the user explicitly confirmed",
					},
				},
				"required": []string{"inquiry_id", "confirmed"},
			},
		},
		{
			Name:        ToolGetInquiry,
			Description: "Fetch the current state of an inquiry by its ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"inquiry_id": map[string]any{
						"type":        "integer",
						"description": "The inquiry ID",
					},
				},
				"required": []string{"inquiry_id"},
			},
		},
		{
			Name:        ToolListVendorInquiries,
			Description: "List inquiries addressed to the current user as a vendor, optionally filtered by status.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"statuses": map[string]any{
						"type":        "array",
						"description": "Status filter, e.g. [\"submitted\", \"pending_review\"]",
						"items": map[string]any{
							"type": "string",
							"enum": []string{"draft", "submitted", "pending_review", "responded", "accepted", "rejected"},
						},
					},
				},
			},
		},
	}
}
