package knowledge

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"

	apperrors "github.com/hrhub/backend-go/internal/errors"
)

// DocumentParser 文件解析器接口
type DocumentParser interface {
	Parse(reader io.Reader, filename string) (string, error)
	Supports(filename string) bool
}

// PDFParser PDF文件解析器
type PDFParser struct{}

func (p *PDFParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

func (p *PDFParser) Parse(reader io.Reader, filename string) (string, error) {
	pdfBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewExtractionError(filename, err)
	}

	pdfReader, err := pdfmodel.NewPdfReader(bytes.NewReader(pdfBytes))
	if err != nil {
		return "", apperrors.NewExtractionError(filename, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", apperrors.NewExtractionError(filename, err)
	}

	// 逐页提取文本，单页失败跳过
	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// WordParser Word文档解析器（仅支持.docx格式）
type WordParser struct{}

func (p *WordParser) Supports(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".docx"
}

func (p *WordParser) Parse(reader io.Reader, filename string) (string, error) {
	docBytes, err := io.ReadAll(reader)
	if err != nil {
		return "", apperrors.NewExtractionError(filename, err)
	}

	doc, err := document.Read(bytes.NewReader(docBytes), int64(len(docBytes)))
	if err != nil {
		return "", apperrors.NewExtractionError(filename, err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// ParserRegistry 文件解析器注册表
type ParserRegistry struct {
	parsers []DocumentParser
}

// NewParserRegistry 创建文件解析器注册表
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		parsers: []DocumentParser{
			&PDFParser{},
			&WordParser{},
		},
	}
}

// Supports 检查文件格式是否受支持
func (m *ParserRegistry) Supports(filename string) bool {
	for _, parser := range m.parsers {
		if parser.Supports(filename) {
			return true
		}
	}
	return false
}

// ParseFile 解析文件
// 不支持的扩展名在任何提取动作之前即失败。
func (m *ParserRegistry) ParseFile(reader io.Reader, filename string) (string, error) {
	for _, parser := range m.parsers {
		if parser.Supports(filename) {
			return parser.Parse(reader, filename)
		}
	}
	return "", apperrors.NewUnsupportedFormat(filename)
}

// ParsePath 按路径解析文件
// 先检查扩展名再打开文件，不支持的格式不产生任何文件读取。
func (m *ParserRegistry) ParsePath(path string) (string, error) {
	if !m.Supports(path) {
		return "", apperrors.NewUnsupportedFormat(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewExtractionError(path, err)
	}
	defer file.Close()

	return m.ParseFile(file, path)
}

// SupportedFormats 获取支持的文件格式
func (m *ParserRegistry) SupportedFormats() []string {
	return []string{".pdf", ".docx"}
}
