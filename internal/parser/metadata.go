package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Metadata is the document-level information the outline engine uses.
type Metadata struct {
	Title     string
	PageCount int
}

// ReadMetadata validates the PDF structure with pdfcpu and returns the
// document information title and page count.
func ReadMetadata(rs io.ReadSeeker) (Metadata, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return Metadata{}, fmt.Errorf("pdfcpu read: %w", err)
	}
	return Metadata{
		Title:     strings.TrimSpace(ctx.Title),
		PageCount: ctx.PageCount,
	}, nil
}
