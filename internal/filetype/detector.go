// Package filetype classifies input files by magic bytes so the pipeline can
// decide between direct PDF ingestion, LibreOffice conversion, or rejection.
package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the coarse ingestion route for an input file.
type Kind int

const (
	// KindUnsupported covers everything the pipeline cannot turn into slides.
	KindUnsupported Kind = iota
	// KindPDF goes straight to text extraction.
	KindPDF
	// KindOffice needs a LibreOffice pass to become a PDF first.
	KindOffice
)

// Info describes a detected input file.
type Info struct {
	MIMEType    string
	Extension   string
	Kind        Kind
	Description string
}

// officeMIME maps extensions of ZIP/OLE container formats to their real MIME
// types; mimetype reports the container, not the document inside it.
var officeMIME = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".odp":  "application/vnd.oasis.opendocument.presentation",
	".doc":  "application/msword",
	".ppt":  "application/vnd.ms-powerpoint",
	".rtf":  "application/rtf",
}

// Detect sniffs the file's magic bytes and classifies it for ingestion.
func Detect(path string) (*Info, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}

	mime := mtype.String()
	ext := mtype.Extension()

	if mime == "application/zip" || mime == "application/x-ole-storage" || mime == "application/x-cfb" {
		// Container format: trust the extension for the document type.
		fe := strings.ToLower(filepath.Ext(path))
		if override, ok := officeMIME[fe]; ok {
			mime, ext = override, fe
		}
	}

	info := &Info{MIMEType: mime, Extension: ext}
	switch {
	case mime == "application/pdf":
		info.Kind = KindPDF
		info.Description = "PDF document"
	case isOffice(mime):
		info.Kind = KindOffice
		info.Description = "office document (needs PDF conversion)"
	default:
		info.Kind = KindUnsupported
		info.Description = fmt.Sprintf("unsupported file type: %s", mime)
	}

	log.Debug().Str("mime", mime).Str("ext", ext).Str("file", path).Msg("detected input type")
	return info, nil
}

func isOffice(mime string) bool {
	for _, m := range officeMIME {
		if m == mime {
			return true
		}
	}
	return false
}
