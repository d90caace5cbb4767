package models

type ArtifactKind string

const (
	KindImage   ArtifactKind = "image"
	KindMask    ArtifactKind = "mask"
	KindGradCAM ArtifactKind = "gradcam"
	KindReport  ArtifactKind = "report"
	KindVideo   ArtifactKind = "video"
)

var ArtifactKinds = [...]ArtifactKind{
	KindImage,
	KindMask,
	KindGradCAM,
	KindReport,
	KindVideo,
}

// IsImage reports whether the kind is rendered straight from a PNG.
func (k ArtifactKind) IsImage() bool {
	return k == KindImage || k == KindMask || k == KindGradCAM
}

func ParseArtifactKind(s string) (ArtifactKind, bool) {
	for _, k := range ArtifactKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
