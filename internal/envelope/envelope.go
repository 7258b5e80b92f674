package envelope

import (
	"video-resolver/pkg/models"
)

// Build converts a terminal resolution result into the caller-facing
// response shape. Optional fields stay absent when the winning strategy did
// not produce them; nothing is invented here.
func Build(result *models.ResolutionResult) models.Envelope {
	if !result.Succeeded() {
		return models.Envelope{
			Success: false,
			Error:   result.Message,
		}
	}

	outcome := result.Outcome
	env := models.Envelope{
		Success:  true,
		VideoURL: outcome.VideoURL,
	}
	if outcome.ThumbnailURL != "" {
		env.Thumbnail = outcome.ThumbnailURL
	}
	if outcome.Quality != "" && outcome.Quality != models.QualityUnknown {
		env.Quality = outcome.Quality
	}
	if outcome.DurationSeconds > 0 {
		env.Duration = models.FormatDuration(outcome.DurationSeconds)
	}
	return env
}
