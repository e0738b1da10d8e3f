package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeSVG  MediaType = "svg"
	TypeMP4  MediaType = "mp4"
	TypeWEBM MediaType = "webm"
	TypeMP3  MediaType = "mp3"
	TypeWAV  MediaType = "wav"
	TypeOGG  MediaType = "ogg"
)

// Kind groups media types by the upload field they are accepted in.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	Kind Kind
	MIME string
}

// Ext is the file extension used in object keys.
func (r Result) Ext() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	switch {
	case isJPEG(head):
		return Result{Type: TypeJPEG, Kind: KindImage, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, Kind: KindImage, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, Kind: KindImage, MIME: "image/gif"}, nil
	case isRIFF(head, "WEBP"):
		return Result{Type: TypeWEBP, Kind: KindImage, MIME: "image/webp"}, nil
	case isSVG(head):
		return Result{Type: TypeSVG, Kind: KindImage, MIME: "image/svg+xml"}, nil
	case isMP4(head):
		return Result{Type: TypeMP4, Kind: KindVideo, MIME: "video/mp4"}, nil
	case isWEBM(head):
		return Result{Type: TypeWEBM, Kind: KindVideo, MIME: "video/webm"}, nil
	case isMP3(head):
		return Result{Type: TypeMP3, Kind: KindAudio, MIME: "audio/mpeg"}, nil
	case isRIFF(head, "WAVE"):
		return Result{Type: TypeWAV, Kind: KindAudio, MIME: "audio/wav"}, nil
	case bytes.HasPrefix(head, []byte("OggS")):
		return Result{Type: TypeOGG, Kind: KindAudio, MIME: "audio/ogg"}, nil
	}

	return Result{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(head, pngMagic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isRIFF(head []byte, format string) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		string(head[8:12]) == format
}

func isSVG(head []byte) bool {
	trimmed := strings.TrimSpace(string(head))
	if strings.HasPrefix(trimmed, "<svg") {
		return true
	}
	return strings.HasPrefix(trimmed, "<?xml") && strings.Contains(trimmed, "<svg")
}

func isMP4(head []byte) bool {
	if len(head) < 12 || string(head[4:8]) != "ftyp" {
		return false
	}
	// HEIF/AVIF stills share the ftyp box
	brand := string(head[8:12])
	return brand != "avif" && brand != "heic" && brand != "mif1"
}

func isWEBM(head []byte) bool {
	return bytes.HasPrefix(head, []byte{0x1a, 0x45, 0xdf, 0xa3})
}

func isMP3(head []byte) bool {
	if bytes.HasPrefix(head, []byte("ID3")) {
		return true
	}
	// MPEG audio frame sync
	return len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0
}

func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}
