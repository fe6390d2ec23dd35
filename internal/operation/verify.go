package operation

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/harrison/cadbatch/internal/executor"
	"github.com/harrison/cadbatch/internal/models"
)

// Verify wraps next so that a successful item also has to leave a
// non-empty file at its output path. PDF outputs must additionally pass
// pdfcpu validation; their page count is appended to the action.
func Verify(next executor.Operation) executor.Operation {
	return executor.OperationFunc(func(ctx context.Context, item models.WorkItem) (string, error) {
		action, err := next.Execute(ctx, item)
		if err != nil {
			return action, err
		}

		pages, err := CheckOutput(item)
		if err != nil {
			return "", err
		}
		if pages > 0 {
			action = fmt.Sprintf("%s (%d pages)", action, pages)
		}
		return action, nil
	})
}

// CheckOutput verifies the file an item should have produced. For PDF
// outputs it returns the page count; for other kinds it returns 0.
func CheckOutput(item models.WorkItem) (int, error) {
	info, err := os.Stat(item.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("output file was not written: %s", item.OutputPath)
		}
		return 0, fmt.Errorf("failed to check output: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("output path is a directory: %s", item.OutputPath)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("output file is empty: %s", item.OutputPath)
	}

	if item.Kind != models.OutputPDF {
		return 0, nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(item.OutputPath, conf); err != nil {
		return 0, fmt.Errorf("pdf validation failed: %w", err)
	}
	pages, err := api.PageCountFile(item.OutputPath)
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return pages, nil
}
