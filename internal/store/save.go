package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/fuzzerr"
)

// SaveVersion is the current save-file format version (spec §4.5).
const SaveVersion int32 = 1

var saveMagic = [2]uint64{0xe30db97c4f1e478f, 0x8b03f3d9e946dcf3}

// SaveDir is the default location for save files (spec §6).
const SaveDir = "./saves"

// Encoder is implemented by every form that can be written to a save
// file: it reports its envelope metadata and serializes its own
// version-specific body (spec §4.5's "form envelope" plus payload).
type Encoder interface {
	FormEnvelope() forms.Envelope
	FourCC() forms.FourCC
	EncodeBody(b *Buffer)
}

// Decoder is implemented by forms reconstructed while loading: it
// consumes the version-specific body, and may enqueue cross-reference
// closures onto the Resolver for phase (a)/(b) wiring (spec §4.5's
// two-phase resolver).
type Decoder interface {
	DecodeBody(s *Stream, env forms.Envelope, r *Resolver)
}

func writeEnvelope(b *Buffer, env forms.Envelope) {
	b.WriteI32(env.Version)
	b.WriteU64(uint64(env.ID))
	b.WriteU64(uint64(env.Flags))
	b.WriteU64(uint64(len(env.FlagValues)))
	for _, v := range env.FlagValues {
		b.WriteU64(v)
	}
}

func readEnvelope(s *Stream) forms.Envelope {
	env := forms.Envelope{Valid: true}
	env.Version = s.ReadI32()
	env.ID = forms.FormID(s.ReadU64())
	env.Flags = forms.Flag(s.ReadU64())
	n := s.ReadU64()
	env.FlagValues = make([]uint64, 0, n)
	for i := uint64(0); i < n && s.err == nil; i++ {
		env.FlagValues = append(env.FlagValues, s.ReadU64())
	}
	if s.Err() != nil {
		env.Valid = false
	}
	return env
}

// UniqueName returns a stable per-process save-name component (spec
// §6 "name pattern <uniquename>_<n>.tfsave"), generated once and
// reused across saves.
func UniqueName() string {
	return uniqueName()
}

var uniqueName = sync.OnceValue(uuid.NewString)

// SavePath builds the path for save number n under dir using the
// name pattern from spec §6.
func SavePath(dir, uniqueName string, n int) string {
	return filepath.Join(dir, uniqueName+"_"+itoa(n)+".tfsave")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Write serializes the store's forms to w following the save sequence
// in spec §4.5: header, then for every form a {type-tag, byte-length,
// envelope+body} record.
func Write(w io.Writer, s *Store, sessionCounter uint64, uniqueName string, saveNumber int32, log *zerolog.Logger) error {
	hdr := GetBuffer()
	defer PutBuffer(hdr)
	hdr.WriteU64(saveMagic[0])
	hdr.WriteU64(saveMagic[1])
	hdr.WriteI32(SaveVersion)
	hdr.WriteU64(sessionCounter)
	hdr.WriteString(uniqueName)
	hdr.WriteI32(saveNumber)
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fuzzerr.New(fuzzerr.KindEncode, err)
	}

	for _, id := range s.IDs() {
		v, ok := s.Form(id)
		if !ok {
			continue
		}
		enc, ok := v.(Encoder)
		if !ok {
			if log != nil {
				log.Warn().Uint64("form_id", uint64(id)).Msg("form has no encoder, skipping")
			}
			continue
		}
		body := GetBuffer()
		writeEnvelope(body, enc.FormEnvelope())
		enc.EncodeBody(body)

		rec := GetBuffer()
		rec.WriteI32(int32(enc.FourCC()))
		rec.WriteU64(uint64(len(body.Bytes())))
		if _, err := w.Write(rec.Bytes()); err != nil {
			PutBuffer(body)
			PutBuffer(rec)
			return fuzzerr.New(fuzzerr.KindEncode, err)
		}
		if _, err := w.Write(body.Bytes()); err != nil {
			PutBuffer(body)
			PutBuffer(rec)
			return fuzzerr.New(fuzzerr.KindEncode, err)
		}
		PutBuffer(body)
		PutBuffer(rec)
	}
	return nil
}

// WriteFile writes s to a fresh .tfsave file under dir, creating dir
// if needed.
func WriteFile(dir, uniqueName string, saveNumber int32, s *Store, sessionCounter uint64, log *zerolog.Logger) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fuzzerr.New(fuzzerr.KindEncode, err)
	}
	path := SavePath(dir, uniqueName, int(saveNumber))
	f, err := os.Create(path)
	if err != nil {
		return "", fuzzerr.New(fuzzerr.KindEncode, err)
	}
	defer f.Close()
	if err := Write(f, s, sessionCounter, uniqueName, saveNumber, log); err != nil {
		return "", err
	}
	return path, nil
}
