package webcam

// MediaStream is an interface that represents a collection of existing tracks.
// Reference: https://w3c.github.io/mediacapture-main/#dom-mediastream
type MediaStream interface {
	// GetVideoTracks implements https://w3c.github.io/mediacapture-main/#dom-mediastream-getvideotracks
	GetVideoTracks() []Track
	// GetTracks implements https://w3c.github.io/mediacapture-main/#dom-mediastream-gettracks
	GetTracks() []Track
}

type mediaStream struct {
	tracks []Track
}

// NewMediaStream creates a MediaStream holding tracks in the given order.
// Duplicated tracks are kept once.
func NewMediaStream(tracks ...Track) MediaStream {
	m := mediaStream{}
	seen := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.ID()]; ok {
			continue
		}
		seen[t.ID()] = struct{}{}
		m.tracks = append(m.tracks, t)
	}
	return &m
}

func (m *mediaStream) GetVideoTracks() []Track {
	result := make([]Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		if t.Kind() == VideoInput {
			result = append(result, t)
		}
	}
	return result
}

func (m *mediaStream) GetTracks() []Track {
	return append([]Track(nil), m.tracks...)
}
