package validation

// DocumentOptions are the print preferences for one document.
type DocumentOptions struct {
	Copies        int    `json:"copies" validate:"min=0,maxcopies"`                                                  // 0 means 1
	IsColor       bool   `json:"is_color"`                                                                           // color vs black & white
	Layout        string `json:"layout" validate:"omitempty,oneof='Single-sided' 'Double-sided'"`                    // default Single-sided
	PagesPerSheet string `json:"pages_per_sheet" validate:"omitempty,oneof='1 page per side' '2 pages per side'"`    // informational
	PageSelection string `json:"page_selection" validate:"omitempty,oneof='All Pages' 'Custom Pages'"`               // default All Pages
	CustomPages   string `json:"custom_pages,omitempty" validate:"max=200"`                                          // free text, e.g. "1-3, 7"
}

// QuoteDocument is one line of a price quote.
type QuoteDocument struct {
	Pages int `json:"pages" validate:"min=0"`
	DocumentOptions
}

// QuoteRequest is the payload for POST /api/quote
type QuoteRequest struct {
	Documents []QuoteDocument `json:"documents" validate:"required,min=1,dive"`
}

// SubmitForm holds the non-file fields of POST /api/orders
type SubmitForm struct {
	Phone       string `form:"phone" validate:"required,phone10"`
	RequestType string `form:"request_type" validate:"required,oneof=Urgent Pickup"`
	Options     string `form:"options"` // JSON array of DocumentOptions, aligned with the uploaded documents
}

// LoginRequest is the payload for POST /api/admin/login
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}
