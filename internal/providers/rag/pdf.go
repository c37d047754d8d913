package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/sandevgo/polychat/internal/core"
)

// PDFExtractor pulls plain text out of PDF byte streams using pdfcpu.
// pdfcpu has no direct text extraction, so page content streams are
// extracted to a scratch directory and string literals are decoded from
// the text-show operators.
type PDFExtractor struct {
	tempDir string
}

func NewPDFExtractor() (*PDFExtractor, error) {
	tempDir := filepath.Join(os.TempDir(), "polychat-pdf")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return &PDFExtractor{tempDir: tempDir}, nil
}

// ExtractText returns the text of all pages joined with newlines. A PDF
// with zero extractable pages yields an empty string, not an error.
// Malformed bytes surface as *core.DocumentParseError.
func (e *PDFExtractor) ExtractText(name string, data []byte) (string, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%d.pdf", os.Getpid()))
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp pdf: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", &core.DocumentParseError{Name: name, Err: err}
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d", os.Getpid()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", &core.DocumentParseError{Name: name, Err: err}
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		pageTexts[pageNum] = decodePageText(content)
	}

	pages := make([]string, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, pageTexts[pageNum])
	}
	return strings.Join(pages, "\n"), nil
}

var (
	showTextRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*(?:Tj|TJ|')`)
	arrayRe    = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

// decodePageText pulls string literals out of the Tj/TJ text-show
// operators of a raw content stream. Encoded fonts and CID text are left
// behind, which is acceptable for retrieval purposes.
func decodePageText(content []byte) string {
	var sb strings.Builder
	stream := string(content)

	for _, line := range strings.Split(stream, "\n") {
		if strings.Contains(line, "TJ") && strings.Contains(line, "[") {
			for _, m := range arrayRe.FindAllStringSubmatch(line, -1) {
				sb.WriteString(unescapePDFString(m[1]))
			}
			sb.WriteString("\n")
			continue
		}
		for _, m := range showTextRe.FindAllStringSubmatch(line, -1) {
			sb.WriteString(unescapePDFString(m[1]))
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
		`\n`, "\n",
		`\r`, "",
		`\t`, "\t",
	)
	return replacer.Replace(s)
}
