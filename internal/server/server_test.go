package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-codec/internal/config"
	"github.com/rezonia/einvoice-codec/internal/model"
	"github.com/rezonia/einvoice-codec/internal/server"
)

func newTestServer() *server.Server {
	codec := config.DefaultCodec()
	codec.PDFAEnabled = false
	return server.NewServer(&server.Config{
		Address:      ":8080",
		MaxBodyBytes: 1 << 20,
		Codec:        codec,
		Logger:       zerolog.Nop(),
	})
}

func validInvoice() *model.Invoice {
	return &model.Invoice{
		Number:         "INV/2024/0001",
		Type:           model.DocumentTypeInvoice,
		IssueDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:       "EUR",
		BuyerReference: "REF-1",
		Supplier: model.Party{
			Name:         "Supplier SAS",
			VAT:          "FR12345678901",
			Registration: "73282932000074",
			Address:      model.Address{Street: "1 rue de la Paix", City: "Paris", Zip: "75002", Country: "FR"},
		},
		Customer: model.Party{
			Name:         "Customer SARL",
			VAT:          "FR98765432109",
			Registration: "552100554",
			Address:      model.Address{Street: "2 avenue Foch", City: "Lyon", Zip: "69006", Country: "FR"},
		},
		Lines: []model.Line{{
			Sequence:  1,
			Name:      "Consulting",
			Quantity:  decimal.NewFromInt(10),
			UnitPrice: decimal.NewFromInt(100),
			Taxes:     []model.Tax{{Name: "VAT 20%", Amount: decimal.NewFromInt(20)}},
		}},
		PaymentMeans: &model.PaymentMeans{Code: "30", Account: "FR7630006000011234567890189"},
	}
}

func invoiceJSON(t *testing.T, inv *model.Invoice) []byte {
	t.Helper()
	body, err := json.Marshal(inv)
	require.NoError(t, err)
	return body
}

func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>",
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.7\n")
	offsets := make([]int, 0, len(objects))
	for i, o := range objects {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func serve(srv *server.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func exportFacturX(t *testing.T, srv *server.Server) []byte {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/export/facturx", bytes.NewReader(invoiceJSON(t, validInvoice())))
	req.Header.Set("Content-Type", "application/json")
	w := serve(srv, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Body.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
	assert.NotEmpty(t, w.Header().Get(server.HeaderRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.HeaderRequestID, "req-42")
	w := serve(srv, req)

	assert.Equal(t, "req-42", w.Header().Get(server.HeaderRequestID))
}

func TestExportEndpoints(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path     string
		filename string
	}{
		{"/api/v1/export/facturx", "factur-x.xml"},
		{"/api/v1/export/ubl", "INV_2024_0001_ubl_bis3.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader(invoiceJSON(t, validInvoice())))
			req.Header.Set("Content-Type", "application/json")
			w := serve(srv, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
			assert.Contains(t, w.Header().Get("Content-Disposition"), tt.filename)
			assert.Len(t, w.Header().Get(server.HeaderDigest), 64)

			var diags model.Diagnostics
			require.NoError(t, json.Unmarshal([]byte(w.Header().Get(server.HeaderDiagnostics)), &diags))
			assert.False(t, diags.HasBlocking())
			assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("<?xml")))
		})
	}
}

func TestExportEndpoint_Blocked(t *testing.T) {
	srv := newTestServer()
	inv := validInvoice()
	inv.Number = ""

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export/ubl", bytes.NewReader(invoiceJSON(t, inv)))
	req.Header.Set("Content-Type", "application/json")
	w := serve(srv, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Diagnostics.Has("BR-02"))
	assert.Contains(t, response.Error, "BR-02")
}

func TestExportEndpoint_InvalidJSON(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/export/facturx", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	w := serve(srv, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportEndpoint(t *testing.T) {
	srv := newTestServer()
	xml := exportFacturX(t, srv)

	w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/import?direction=sale", bytes.NewReader(xml)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response server.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "facturx", response.Format)
	assert.Equal(t, "xml", response.Container)
	require.NotNil(t, response.Invoice)
	assert.Equal(t, "INV/2024/0001", response.Invoice.Number)
	assert.Equal(t, "Customer SARL", response.Invoice.Customer.Name)
}

func TestImportEndpoint_Errors(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
	}{
		{"empty body", "/api/v1/import", nil, http.StatusBadRequest},
		{"invalid direction", "/api/v1/import?direction=both", []byte("<x/>"), http.StatusBadRequest},
		{"not xml", "/api/v1/import", []byte("not xml"), http.StatusUnprocessableEntity},
		{"pdf without invoice", "/api/v1/import", minimalPDF(), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader(tt.body)))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestEmbedEndpoint(t *testing.T) {
	srv := newTestServer()
	xml := exportFacturX(t, srv)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", "invoice.pdf")
	require.NoError(t, err)
	_, err = part.Write(minimalPDF())
	require.NoError(t, err)
	part, err = mw.CreateFormFile("xml", "factur-x.xml")
	require.NoError(t, err)
	_, err = part.Write(xml)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/embed", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(srv, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "[]", w.Header().Get(server.HeaderDiagnostics))

	// the packaged PDF imports back
	w = serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader(w.Body.Bytes())))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response server.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "pdf", response.Container)
	assert.Equal(t, "factur-x.xml", response.Attachment)
}

func TestEmbedEndpoint_MissingPart(t *testing.T) {
	srv := newTestServer()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", "invoice.pdf")
	require.NoError(t, err)
	_, err = part.Write(minimalPDF())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/embed", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(srv, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetectEndpoint(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name      string
		body      []byte
		format    string
		container string
	}{
		{"CII", []byte(`<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"/>`), "facturx", "xml"},
		{"UBL", []byte(`<CreditNote xmlns="urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"/>`), "ubl_bis3", "xml"},
		{"other XML", []byte(`<Order/>`), "unknown", "xml"},
		{"PDF", minimalPDF(), "unknown", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(tt.body)))
			require.Equal(t, http.StatusOK, w.Code)

			var response server.DetectResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.format, response.Format)
			assert.Equal(t, tt.container, response.Container)
			assert.Equal(t, len(tt.body), response.Size)
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	srv := newTestServer()
	inv := validInvoice()
	inv.Currency = "EURO"

	tests := []struct {
		name  string
		path  string
		inv   *model.Invoice
		valid bool
	}{
		{"valid Factur-X", "/api/v1/validate", validInvoice(), true},
		{"valid UBL", "/api/v1/validate?format=ubl", validInvoice(), true},
		{"unknown currency", "/api/v1/validate?format=ubl", inv, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewReader(invoiceJSON(t, tt.inv)))
			req.Header.Set("Content-Type", "application/json")
			w := serve(srv, req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var response server.ValidationResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.valid, response.Valid, response.Diagnostics.Strings())
		})
	}
}

func TestValidateEndpoint_UnknownFormat(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate?format=edifact", bytes.NewReader(invoiceJSON(t, validInvoice())))
	w := serve(srv, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimit(t *testing.T) {
	codec := config.DefaultCodec()
	codec.PDFAEnabled = false
	srv := server.NewServer(&server.Config{MaxBodyBytes: 16, Codec: codec, Logger: zerolog.Nop()})

	body := bytes.Repeat([]byte("<a/>"), 64)
	w := serve(srv, httptest.NewRequest(http.MethodPost, "/api/v1/detect", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
