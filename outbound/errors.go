// C:\Users\wasab\OneDrive\デスクトップ\PYRO\outbound\errors.go
package outbound

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pyrotrack/allocation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNoDataExtracted   = errors.New("no data extracted")
	ErrEmptyText         = errors.New("text is empty")
	ErrUnknownStrategy   = errors.New("unknown parse strategy")
	ErrRecordNotFound    = errors.New("outbound record not found")
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrLineCountMismatch = errors.New("line count does not match the record")
	ErrEmptyReturn       = errors.New("at least one line needs a return quantity")
	ErrNegativeReturn    = errors.New("return quantity must not be negative")
	ErrReturnExceedsLine = errors.New("return quantity exceeds line quantity")
	ErrNegativeRefund    = errors.New("refund must not be negative")
)

// ValidationError は操作全体を拒否した検証エラーです。状態は変更されていません。
type ValidationError struct {
	Op    string
	Lines []*allocation.LineError
	Err   error
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	for _, l := range e.Lines {
		parts = append(parts, l.Error())
	}
	return fmt.Sprintf("%s rejected: %s", e.Op, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Lines)+1)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, l := range e.Lines {
		errs = append(errs, l)
	}
	return errs
}

// ParseError は解析器 (正規表現 / AI) の失敗です。入力は保持され、別の方式で再試行できます。
type ParseError struct {
	Strategy Strategy
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse (%s) failed: %v", e.Strategy, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StatusFor はエラーを HTTP ステータスに対応付けます。
func StatusFor(err error) int {
	var (
		vErr  *ValidationError
		pErr  *ParseError
		vErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &vErrs), errors.Is(err, ErrNoDataExtracted), errors.Is(err, ErrEmptyText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	case errors.As(err, &pErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// RespondError はエラーを JSON で返します。行エラーは lineErrors に並べます。
func RespondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var vErr *ValidationError
	if errors.As(err, &vErr) && len(vErr.Lines) > 0 {
		lines := make([]gin.H, 0, len(vErr.Lines))
		for _, l := range vErr.Lines {
			lines = append(lines, gin.H{
				"index":       l.Index,
				"productName": l.ProductName,
				"message":     allocation.Message(l.Err),
			})
		}
		body["lineErrors"] = lines
	}
	c.Error(err)
	c.AbortWithStatusJSON(StatusFor(err), body)
}
