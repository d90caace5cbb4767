// Package artifact maps a case onto the fixed results directory layout.
package artifact

import (
	"os"
	"path/filepath"

	"casevue/internal/models"
)

const (
	ManifestName = "select_img.txt"

	imageDir   = "ori_img"
	maskDir    = "mask"
	gradcamDir = "gradcam"
	reportDir  = "prob"
	videoDir   = "video"

	imageExt  = ".png"
	reportExt = ".txt"
	videoExt  = ".MOV"
)

// Set holds the candidate paths of every artifact of one case. Nothing in
// it is guaranteed to exist.
type Set struct {
	Case    models.Case `json:"case"`
	Image   string      `json:"image"`
	Mask    string      `json:"mask"`
	GradCAM string      `json:"gradcam"`
	Report  string      `json:"report"`
	Video   string      `json:"video"`
}

func ManifestPath(root string) string {
	return filepath.Join(root, ManifestName)
}

// Resolve is a pure function of root and the case key.
func Resolve(root string, c models.Case) Set {
	return Set{
		Case:    c,
		Image:   filepath.Join(root, imageDir, c.Key+imageExt),
		Mask:    filepath.Join(root, maskDir, c.Key+imageExt),
		GradCAM: filepath.Join(root, gradcamDir, c.Key+imageExt),
		Report:  filepath.Join(root, reportDir, c.Key+reportExt),
		Video:   filepath.Join(root, videoDir, c.GroupKey()+videoExt),
	}
}

func (s Set) Path(kind models.ArtifactKind) string {
	switch kind {
	case models.KindImage:
		return s.Image
	case models.KindMask:
		return s.Mask
	case models.KindGradCAM:
		return s.GradCAM
	case models.KindReport:
		return s.Report
	case models.KindVideo:
		return s.Video
	}
	return ""
}

// Availability checks every path of the set against the filesystem.
func (s Set) Availability() map[models.ArtifactKind]bool {
	out := make(map[models.ArtifactKind]bool, len(models.ArtifactKinds))
	for _, k := range models.ArtifactKinds {
		out[k] = Exists(s.Path(k))
	}
	return out
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
