package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
)

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("9876543210"))

	for _, bad := range []string{"987654321", "98765432100", "987654321a", "", "+919876543", "98765 4321", "９８７６５４３２１０"} {
		assert.False(t, IsValidPhone(bad), bad)
	}
}

func TestSubmitForm(t *testing.T) {
	v := New(20)

	assert.NoError(t, v.Struct(SubmitForm{Phone: "9876543210", RequestType: "Pickup"}))
	assert.NoError(t, v.Struct(SubmitForm{Phone: "9876543210", RequestType: "Urgent"}))
	assert.Error(t, v.Struct(SubmitForm{Phone: "987654321", RequestType: "Pickup"}))
	assert.Error(t, v.Struct(SubmitForm{Phone: "9876543210", RequestType: "Later"}))
}

func TestDocumentOptions(t *testing.T) {
	v := New(20)

	assert.NoError(t, v.Struct(DocumentOptions{}))
	assert.NoError(t, v.Struct(DocumentOptions{Copies: 20, Layout: "Double-sided", PagesPerSheet: "2 pages per side", PageSelection: "All Pages"}))
	assert.NoError(t, v.Struct(DocumentOptions{PageSelection: "Custom Pages", CustomPages: "1-3"}))

	assert.Error(t, v.Struct(DocumentOptions{Copies: 21}))
	assert.Error(t, v.Struct(DocumentOptions{Copies: -1}))
	assert.Error(t, v.Struct(DocumentOptions{Layout: "Triple-sided"}))
	assert.Error(t, v.Struct(DocumentOptions{PageSelection: "Custom Pages", CustomPages: "  "}))
}

func TestMaxCopiesIsConfigurable(t *testing.T) {
	assert.Error(t, New(5).Struct(DocumentOptions{Copies: 6}))
	assert.NoError(t, New(50).Struct(DocumentOptions{Copies: 30}))
}

func TestQuoteRequest(t *testing.T) {
	v := New(20)

	ok := QuoteRequest{Documents: []QuoteDocument{{Pages: 10, DocumentOptions: DocumentOptions{Copies: 2, IsColor: true}}}}
	assert.NoError(t, v.Struct(ok))

	assert.Error(t, v.Struct(QuoteRequest{}))
	assert.Error(t, v.Struct(QuoteRequest{Documents: []QuoteDocument{{Pages: -1}}}))
	assert.Error(t, v.Struct(QuoteRequest{Documents: []QuoteDocument{{Pages: 1, DocumentOptions: DocumentOptions{Copies: 99}}}}))
}

func TestToAppError(t *testing.T) {
	v := New(20)

	err := ToAppError(v.Struct(SubmitForm{Phone: "12", RequestType: ""}))

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	var ve *apperror.ValidationError
	require.True(t, errors.As(errs[0], &ve))
	assert.Equal(t, "Phone", ve.Field)
	assert.Equal(t, "must be exactly 10 digits", ve.Message)
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New(20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req LoginRequest
	err := BindAndValidate(c, &req, v)

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}
