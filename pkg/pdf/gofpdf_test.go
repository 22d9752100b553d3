package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGofpdfSinkProducesPDF(t *testing.T) {
	sink := NewGofpdfSink(A4(), Metadata{Title: "Declaração de Frequência", Author: "Escola Modelo"})
	canvas := NewCanvas(sink, A4())
	canvas.Header(Masthead{SchoolName: "Escola Modelo", Title: "Declaração", Logo: &Image{Data: []byte("not an image"), Format: "PNG"}})
	canvas.SectionTitle("Frequência")
	canvas.InfoGrid([]Field{{Label: "Situação", Value: "Regular (≥ 75%)"}}, 2)
	canvas.Table([]Column{{Header: "Disciplina"}, {Header: "Frequência", Align: AlignRight}}, [][]string{{"Matemática", "90.0%"}}, TableOptions{})
	canvas.Paragraphs("Declaramos, para os devidos fins, que João é aluno.", 10)
	canvas.SignatureLines([]string{"Secretaria", "Direção"})
	canvas.Footer(FooterInfo{IssuedAt: time.Now(), DocumentID: "doc-123456789"})

	var buf bytes.Buffer
	require.NoError(t, sink.Output(&buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
