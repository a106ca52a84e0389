package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
	"github.com/imrishuroy/printeasy-orderflow/internal/intake"
	"github.com/imrishuroy/printeasy-orderflow/internal/validation"
)

// IntakeConfig groups dependencies for the customer routes.
type IntakeConfig struct {
	Service      *intake.Service
	Validator    *validatorv10.Validate
	MaxBodyBytes int64
}

// RegisterIntakeRoutes registers quote, inspect and order submission.
func RegisterIntakeRoutes(r gin.IRoutes, cfg IntakeConfig) {
	h := &intakeHandler{cfg: cfg}
	r.POST("/api/quote", h.quote)
	r.POST("/api/documents/inspect", h.limit, h.inspect)
	r.POST("/api/orders", h.limit, h.submit)
}

type intakeHandler struct {
	cfg IntakeConfig
}

func (h *intakeHandler) limit(c *gin.Context) {
	if h.cfg.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxBodyBytes)
	}
	c.Next()
}

func (h *intakeHandler) quote(c *gin.Context) {
	var req validation.QuoteRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}

	q, err := h.cfg.Service.Quote(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *intakeHandler) inspect(c *gin.Context) {
	fh, err := c.FormFile("document")
	if err != nil {
		writeError(c, &apperror.ValidationError{Field: "document", Message: "a document file is required"})
		return
	}
	up, err := readFile(fh)
	if err != nil {
		writeError(c, err)
		return
	}

	pages, err := h.cfg.Service.Inspect(up.Name, up.Content, lazyCache{c})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file_name": up.Name, "pages": pages})
}

func (h *intakeHandler) submit(c *gin.Context) {
	var form validation.SubmitForm
	if err := c.ShouldBind(&form); err != nil {
		formError(c, err)
		return
	}
	mf, err := c.MultipartForm()
	if err != nil {
		formError(c, err)
		return
	}

	sub, err := buildSubmission(form, mf)
	if err != nil {
		writeError(c, err)
		return
	}
	sub.IdempotencyKey = c.GetHeader("Idempotency-Key")

	res, err := h.cfg.Service.Submit(c.Request.Context(), sub, existingCache(c))
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if res.Path == intake.Pickup && !res.Replayed {
		status = http.StatusCreated
		c.Header("Location", fmt.Sprintf("/api/admin/orders/%s", res.OrderID))
	}
	c.JSON(status, res)
}

// buildSubmission pairs the uploaded documents with the options array by position.
// Missing options mean defaults.
func buildSubmission(form validation.SubmitForm, mf *multipart.Form) (intake.Submission, error) {
	sub := intake.Submission{Phone: form.Phone, RequestType: intake.RequestType(form.RequestType)}

	var opts []validation.DocumentOptions
	if form.Options != "" {
		if err := json.Unmarshal([]byte(form.Options), &opts); err != nil {
			return sub, &apperror.ValidationError{Field: "options", Message: "must be a JSON array of document options"}
		}
	}
	files := mf.File["documents"]
	if len(opts) > len(files) {
		return sub, &apperror.ValidationError{Field: "options", Message: fmt.Sprintf("%d options for %d documents", len(opts), len(files))}
	}

	for i, fh := range files {
		up, err := readFile(fh)
		if err != nil {
			return sub, err
		}
		doc := intake.DocumentUpload{FileUpload: up}
		if i < len(opts) {
			doc.Options = opts[i]
		}
		sub.Documents = append(sub.Documents, doc)
	}

	if shots := mf.File["screenshot"]; len(shots) > 0 {
		up, err := readFile(shots[0])
		if err != nil {
			return sub, err
		}
		sub.Screenshot = &up
	}
	return sub, nil
}

func formError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request_too_large", "details": []string{err.Error()}})
		return
	}
	writeError(c, &apperror.ValidationError{Message: "expected multipart/form-data: " + err.Error()})
}

func readFile(fh *multipart.FileHeader) (intake.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return intake.FileUpload{}, &apperror.ValidationError{File: fh.Filename, Message: "could not read upload"}
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return intake.FileUpload{}, &apperror.ValidationError{File: fh.Filename, Message: "could not read upload"}
	}
	return intake.FileUpload{Name: fh.Filename, Content: content}, nil
}
