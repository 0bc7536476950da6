package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/linkgate/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusForbidden, model.NewTokenExpiredError())

	resp := w.Result()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if body.Error != "Token has expired" {
		t.Errorf("error = %q, want %q", body.Error, "Token has expired")
	}
	if body.Code != model.ErrCodeTokenExpired {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeTokenExpired)
	}
	if body.Category != model.CategoryForbidden {
		t.Errorf("category = %q, want %q", body.Category, model.CategoryForbidden)
	}
	if body.Action == "" {
		t.Error("action should not be empty")
	}
	if len(body.Errors) != 0 {
		t.Errorf("errors = %v, want empty", body.Errors)
	}
}

// TestWriteErrorResponse_ValidationViolations は入力検証エラーの一覧がerrorsに含まれることを検証する。
func TestWriteErrorResponse_ValidationViolations(t *testing.T) {
	w := httptest.NewRecorder()

	violations := []string{"Email is required", "Password is required"}
	WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(violations))

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	errs, ok := raw["errors"].([]interface{})
	if !ok {
		t.Fatalf("errors field missing or wrong type: %v", raw["errors"])
	}
	if len(errs) != 2 || errs[0] != "Email is required" {
		t.Errorf("errors = %v, want %v", errs, violations)
	}
}

// TestInternalServerError_HidesDetail は内部エラーが詳細を含まない一般的な本文で返ることを検証する。
func TestInternalServerError_HidesDetail(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if body.Code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInternal)
	}
	if body.Category != model.CategoryInternal {
		t.Errorf("category = %q, want %q", body.Category, model.CategoryInternal)
	}
	if body.Error != "Internal server error" {
		t.Errorf("error = %q", body.Error)
	}
}

// TestErrorResponseBody_RequiredFieldsPresent は必須フィールドがJSONレスポンスに含まれることを検証する。
func TestErrorResponseBody_RequiredFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, model.NewLinkNotFoundError())

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	for _, field := range []string{"error", "code", "category", "action"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
	if _, ok := raw["errors"]; ok {
		t.Error("errors should be omitted when there are no violations")
	}
}
