package constant

type MediaStatus string

const (
	MediaStatusUploading  MediaStatus = "uploading"
	MediaStatusProcessing MediaStatus = "processing"
	MediaStatusReady      MediaStatus = "ready"
	MediaStatusError      MediaStatus = "error"
)

func (s MediaStatus) Terminal() bool {
	return s == MediaStatusReady || s == MediaStatusError
}

type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// Coarse progress checkpoints reported while a file is processing.
// Progress is monotonic; the tracker drops anything that would move it
// backwards.
const (
	ProgressDownloaded  = 10
	ProgressProbed      = 20
	ProgressPreviewDone = 50
	ProgressAudioDone   = 70
	ProgressUploaded    = 90
	ProgressReady       = 100
)

// ArtifactKind namespaces object storage keys per derived artifact.
type ArtifactKind string

const (
	ArtifactOriginal  ArtifactKind = "original"
	ArtifactPreview   ArtifactKind = "preview"
	ArtifactAudio     ArtifactKind = "audio"
	ArtifactThumbnail ArtifactKind = "thumbnail"
	ArtifactSubtitle  ArtifactKind = "subtitle"
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
