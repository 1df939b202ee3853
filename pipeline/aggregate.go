package pipeline

import "ewintr.nl/vidsum/model"

// Aggregate folds the per-video results of one delivery into a report.
// Details keeps the order the results came in, which is delivery order, so
// the caller can correlate them with the original entries.
func Aggregate(results []model.ProcessingResult) model.BatchReport {
	report := model.BatchReport{
		Total:   len(results),
		Details: []model.ProcessingResult{},
	}
	for _, result := range results {
		report.Details = append(report.Details, result)
		if result.Success {
			report.Succeeded++
			continue
		}
		report.Failed++
	}

	return report
}
