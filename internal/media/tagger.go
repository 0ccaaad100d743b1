package media

import (
	"fmt"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/Kirillka645/yotubemp3/internal/types"
)

// Tagger writes track metadata onto a finished MP3 file.
type Tagger interface {
	Tag(path string, meta types.TrackMetadata) error
}

// ID3Tagger writes ID3v2 frames in place. A failed write never touches the
// audio frames; the untagged file stays usable.
type ID3Tagger struct{}

// Tag writes title/artist/album/comment frames onto the file at path.
func (ID3Tagger) Tag(path string, meta types.TrackMetadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", types.ErrTag, path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.Artist != "" {
		tag.SetArtist(meta.Artist)
	}
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "source",
			Text:        meta.Comment,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %v", types.ErrTag, path, err)
	}
	return nil
}
