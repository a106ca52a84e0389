package intake

import (
	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
	"github.com/imrishuroy/printeasy-orderflow/internal/validation"
)

// QuoteLine is the priced form of one requested document.
type QuoteLine struct {
	Pages   int     `json:"pages"`
	Copies  int     `json:"copies"`
	IsColor bool    `json:"is_color"`
	Layout  string  `json:"layout"`
	Price   float64 `json:"price"`
}

// Quote is a price preview. Nothing is uploaded or stored.
type Quote struct {
	Documents  []QuoteLine `json:"documents"`
	TotalPrice float64     `json:"total_price"`
}

// Quote prices the requested documents with the same rules Submit uses.
func (s *Service) Quote(req validation.QuoteRequest) (*Quote, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validation.ToAppError(err)
	}

	q := &Quote{Documents: make([]QuoteLine, 0, len(req.Documents))}
	docs := make([]orders.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		doc := orders.Document{
			Pages:   d.Pages,
			Copies:  d.Copies,
			IsColor: d.IsColor,
			Layout:  d.Layout,
		}
		doc.ApplyDefaults()
		docs = append(docs, doc)
	}

	q.TotalPrice = s.priceAll(docs)
	for _, d := range docs {
		q.Documents = append(q.Documents, QuoteLine{
			Pages:   d.Pages,
			Copies:  d.Copies,
			IsColor: d.IsColor,
			Layout:  d.Layout,
			Price:   d.Price,
		})
	}
	return q, nil
}
