package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/unicode/norm"
)

// pdfResponse defers the PDF headers until the first byte so that a
// failure before it can still be answered with a JSON error.
type pdfResponse struct {
	c           *gin.Context
	filename    string
	disposition string
	extra       map[string]string
	started     bool
}

func newPDFResponse(c *gin.Context, filename, disposition string) *pdfResponse {
	return &pdfResponse{c: c, filename: filename, disposition: disposition, extra: map[string]string{}}
}

func (p *pdfResponse) Write(b []byte) (int, error) {
	if !p.started {
		p.started = true
		h := p.c.Writer.Header()
		h.Set("Content-Type", "application/pdf")
		h.Set("Content-Disposition", contentDisposition(p.disposition, p.filename))
		h.Set("Cache-Control", "no-store")
		for k, v := range p.extra {
			h.Set(k, v)
		}
		p.c.Status(http.StatusOK)
	}
	return p.c.Writer.Write(b)
}

// Started reports whether any byte has reached the client.
func (p *pdfResponse) Started() bool {
	return p.started
}

// contentDisposition quotes the slug as is and adds an RFC 5987 filename*
// when the name is not plain ASCII.
func contentDisposition(disposition, filename string) string {
	quoted := quotableFilename(filename)
	if isASCII(quoted) {
		return fmt.Sprintf(`%s; filename="%s"`, disposition, quoted)
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, disposition, quoted, url.PathEscape(quoted))
}

func quotableFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, norm.NFC.String(name))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
