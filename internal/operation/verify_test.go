package operation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/cadbatch/internal/executor"
	"github.com/harrison/cadbatch/internal/models"
)

// minimalPDF builds a PDF with the given number of empty pages and a
// correct cross-reference table.
func minimalPDF(pages int) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", kids, pages))
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writing(content []byte) executor.Operation {
	return executor.OperationFunc(func(_ context.Context, item models.WorkItem) (string, error) {
		if content != nil {
			if err := os.WriteFile(item.OutputPath, content, 0644); err != nil {
				return "", err
			}
		}
		return "exported " + item.Kind.Label(), nil
	})
}

func itemAt(dir string, kind models.OutputKind) models.WorkItem {
	return models.WorkItem{
		Source:     models.ComponentInfo{SourcePath: filepath.Join(dir, "a.ipt"), DisplayName: "a"},
		Kind:       kind,
		OutputName: "a." + kind.Spec().Extension,
		OutputPath: filepath.Join(dir, "a."+kind.Spec().Extension),
	}
}

func TestVerify_Success(t *testing.T) {
	dir := t.TempDir()

	action, err := Verify(writing([]byte("ISO-10303-21;"))).Execute(context.Background(), itemAt(dir, models.OutputSTEP))
	require.NoError(t, err)
	assert.Equal(t, "exported STEP", action)
}

func TestVerify_PDFPageCount(t *testing.T) {
	dir := t.TempDir()

	action, err := Verify(writing(minimalPDF(2))).Execute(context.Background(), itemAt(dir, models.OutputPDF))
	require.NoError(t, err)
	assert.Equal(t, "exported PDF (2 pages)", action)
}

func TestVerify_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		kind    models.OutputKind
		wantErr string
	}{
		{"not written", nil, models.OutputSTEP, "output file was not written"},
		{"empty", []byte{}, models.OutputSTL, "output file is empty"},
		{"broken pdf", []byte("this is not a pdf"), models.OutputPDF, "pdf validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Verify(writing(tt.content)).Execute(context.Background(), itemAt(dir, tt.kind))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVerify_PassesThroughErrors(t *testing.T) {
	boom := errors.New("converter crashed")
	op := executor.OperationFunc(func(context.Context, models.WorkItem) (string, error) {
		return "", boom
	})

	_, err := Verify(op).Execute(context.Background(), itemAt(t.TempDir(), models.OutputSTEP))
	assert.ErrorIs(t, err, boom)
}
