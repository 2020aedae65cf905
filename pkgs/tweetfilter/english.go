package tweetfilter

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

////////////////////////////////////////////////////////////////////////////////

// Detection is the verdict of a language detector.
type Detection struct {
	// Name is the upper case English name of the top language, "ENGLISH".
	Name      string
	Code      string
	Reliable  bool
	TextBytes int
}

type Detector interface {
	Detect(text string) Detection
}

// WhatlangDetector detects languages with whatlanggo.
type WhatlangDetector struct{}

func (WhatlangDetector) Detect(text string) Detection {
	info := whatlanggo.Detect(text)
	return Detection{
		Name:      strings.ToUpper(info.Lang.String()),
		Code:      info.Lang.Iso6391(),
		Reliable:  info.IsReliable(),
		TextBytes: len(text),
	}
}

////////////////////////////////////////////////////////////////////////////////

const englishName = "ENGLISH"

// ReliablyEnglish accepts tweets the detector reliably reads as English.
type ReliablyEnglish struct {
	detector Detector
}

// NewReliablyEnglish uses WhatlangDetector when detector is nil.
func NewReliablyEnglish(detector Detector) *ReliablyEnglish {
	if detector == nil {
		detector = WhatlangDetector{}
	}
	return &ReliablyEnglish{detector: detector}
}

func (f *ReliablyEnglish) Filter(raw []byte) (bool, error) {
	text, err := field(raw, "text")
	if err != nil {
		return false, err
	}
	d := f.detector.Detect(text.String())
	return d.Name == englishName && d.Reliable, nil
}
