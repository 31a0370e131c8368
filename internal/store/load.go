package store

import (
	"encoding/binary"
	"io"

	"github.com/rs/zerolog"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/fuzzerr"
)

// Header is the decoded save-file metadata block (spec §4.5/§6).
type Header struct {
	SaveVersion    int32
	SessionCounter uint64
	UniqueName     string
	SaveNumber     int32
}

// Factory constructs a zero-value form for its FourCC, ready to have
// DecodeBody called on it.
type Factory func() Decoder

// Load reads a save file from r into a fresh Store, dispatching each
// record's body to the Decoder its FourCC factory produces, then
// running the two-phase resolver. factories must cover every type-tag
// the file can contain; an unrecognized tag's record is skipped with
// a logged warning (forward-compatible with forms added later).
func Load(r io.Reader, factories map[forms.FourCC]Factory, log *zerolog.Logger) (*Store, Header, error) {
	var hdr Header
	var magic [16]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	if binary.LittleEndian.Uint64(magic[0:8]) != saveMagic[0] || binary.LittleEndian.Uint64(magic[8:16]) != saveMagic[1] {
		return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, errBadMagic)
	}

	var rest [4]byte
	if _, err := io.ReadFull(r, rest[:]); err != nil {
		return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	hdr.SaveVersion = int32(binary.LittleEndian.Uint32(rest[:]))

	var u64 [8]byte
	if _, err := io.ReadFull(r, u64[:]); err != nil {
		return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	hdr.SessionCounter = binary.LittleEndian.Uint64(u64[:])

	name, err := readLengthPrefixedString(r)
	if err != nil {
		return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	hdr.UniqueName = name

	if _, err := io.ReadFull(r, rest[:]); err != nil {
		return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	hdr.SaveNumber = int32(binary.LittleEndian.Uint32(rest[:]))

	s := New()
	resolver := NewResolver(s)
	resolver.SetLogger(log)

	for {
		var tagBuf [4]byte
		if _, err := io.ReadFull(r, tagBuf[:]); err == io.EOF {
			break
		} else if err != nil {
			return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
		}
		tag := forms.FourCC(binary.LittleEndian.Uint32(tagBuf[:]))

		var lenBuf [8]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
		}
		length := binary.LittleEndian.Uint64(lenBuf[:])

		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, hdr, fuzzerr.New(fuzzerr.KindDecode, err)
		}

		factory, ok := factories[tag]
		if !ok {
			if log != nil {
				log.Warn().Uint32("tag", uint32(tag)).Msg("unrecognized form tag, skipping")
			}
			continue
		}

		strm := GetStream(payload)
		env := readEnvelope(strm)
		if !env.Valid {
			if log != nil {
				log.Warn().Uint64("form_id", uint64(env.ID)).Msg("corrupt envelope, form left invalid")
			}
			PutStream(strm)
			continue
		}
		form := factory()
		form.DecodeBody(strm, env, resolver)
		if strm.Err() != nil {
			if log != nil {
				log.Warn().Uint64("form_id", uint64(env.ID)).Err(strm.Err()).Msg("form decode failed")
			}
			PutStream(strm)
			continue
		}
		PutStream(strm)
		s.RegisterForm(env.ID, form)
	}

	if err := resolver.Resolve(); err != nil {
		return s, hdr, err
	}
	if err := resolver.ResolveLate(); err != nil {
		return s, hdr, err
	}
	return s, hdr, nil
}

func readLengthPrefixedString(r io.Reader) (string, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errBadMagic = sentinelErr("store: bad save-file magic")
