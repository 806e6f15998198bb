package constant

type CompositionStatus string

const (
	CompositionStatusPending    CompositionStatus = "PENDING"
	CompositionStatusProcessing CompositionStatus = "PROCESSING"
	CompositionStatusFailed     CompositionStatus = "FAILED"
	CompositionStatusCompleted  CompositionStatus = "COMPLETED"
)

type SourceOrigin string

const (
	SourceOriginUpload  SourceOrigin = "upload"
	SourceOriginYouTube SourceOrigin = "youtube"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
