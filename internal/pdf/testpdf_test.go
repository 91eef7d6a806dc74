package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildPDF renders a minimal PDF with one page per entry in pageTexts. An
// empty entry produces a page without content. The cross-reference table
// carries real byte offsets so strict readers accept the output.
func buildPDF(title string, pageTexts ...string) []byte {
	var buf bytes.Buffer
	offsets := []int{}

	object := func(body string) int {
		offsets = append(offsets, buf.Len())
		num := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
		return num
	}

	pages := len(pageTexts)
	fontNum := 3 + 2*pages
	infoNum := fontNum + 1

	buf.WriteString("%PDF-1.4\n")
	object("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))

	for i, text := range pageTexts {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>", 4+2*i, fontNum))

		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	object(fmt.Sprintf("<< /Title (%s) /Author (Clerk of the Board) /Producer (notice-test) >>", title))

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, infoNum, xref)

	return buf.Bytes()
}

func singlePageNotice() []byte {
	return buildPDF("Annual Meeting Notice", "Meeting Date: June 15, 2024")
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
