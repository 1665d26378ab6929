// Package docx extracts text from Word (OOXML) contracts.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// documentPart is the main body part inside the package.
const documentPart = "word/document.xml"

// maxPartSize caps the decompressed body to guard against zip bombs.
const maxPartSize = 64 << 20

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Normalise returns the body text, one line per paragraph.
// Table cells are paragraphs too, so clauses laid out in tables are kept.
func (n *Normaliser) Normalise(ctx context.Context, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", documentPart, err)
		}
		defer rc.Close()

		return parseDocumentXML(io.LimitReader(rc, maxPartSize))
	}

	return "", fmt.Errorf("missing %s", documentPart)
}

// parseDocumentXML walks the WordprocessingML token stream.
// Only w:t runs are text; w:delText (tracked deletions) and w:instrText
// (field codes) are skipped.
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		result strings.Builder
		line   strings.Builder
		inText bool
	)
	endParagraph := func() {
		if text := strings.TrimSpace(line.String()); text != "" {
			if result.Len() > 0 {
				result.WriteString("\n")
			}
			result.WriteString(text)
		}
		line.Reset()
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString("\t")
			case "br", "cr":
				line.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				endParagraph()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	endParagraph()

	return result.String(), nil
}
