package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"

	"specflow/internal/domain"
	"specflow/internal/llm"
)

// MaxImageBytes limita el tamano de la imagen adjunta antes de codificarla.
const MaxImageBytes = 4 << 20

var (
	ErrSubmitInFlight = errors.New("a generation is already in progress")
	ErrNotAnImage     = errors.New("attachment is not an image")
	ErrImageTooLarge  = errors.New("image exceeds the size limit")
)

// State es el estado de la vista de generacion.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot es una copia inmutable del estado para renderizar.
type Snapshot struct {
	State     State
	Text      string
	HasImage  bool
	Listening bool
	Result    *domain.GeneratedSpec
	Err       error
}

// View mantiene el buffer de entrada y el resultado de la ultima generacion.
type View struct {
	mu        sync.Mutex
	generator llm.SpecGenerator

	state     State
	text      string
	image     string
	listening bool
	result    *domain.GeneratedSpec
	err       error
}

func NewView(generator llm.SpecGenerator) *View {
	return &View{generator: generator}
}

func (v *View) SetText(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.text = text
}

func (v *View) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

// AttachImage acepta un data URL cuyo media type sea image/*.
func (v *View) AttachImage(dataURL string) error {
	du, err := dataurl.DecodeString(dataURL)
	if err != nil {
		return fmt.Errorf("decode data url: %w", err)
	}
	if du.MediaType.Type != "image" {
		return ErrNotAnImage
	}
	if len(du.Data) > MaxImageBytes {
		return ErrImageTooLarge
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = dataURL
	return nil
}

// AttachImageFile lee un archivo, detecta su tipo y lo adjunta como data URL.
func (v *View) AttachImageFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	encoded, err := EncodeImage(data)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = encoded
	return nil
}

// EncodeImage detecta el tipo MIME por contenido y devuelve el data URL base64.
func EncodeImage(data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	mt := mimetype.Detect(data)
	mediaType, _, _ := strings.Cut(mt.String(), ";")
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotAnImage, mediaType)
	}
	return dataurl.New(data, mediaType).String(), nil
}

func (v *View) RemoveImage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = ""
}

func (v *View) StartDictation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listening = true
}

func (v *View) StopDictation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listening = false
}

// OnTranscript recibe una frase del reconocedor de voz. Solo las frases finales se anexan al buffer.
func (v *View) OnTranscript(phrase string, final bool) {
	phrase = strings.TrimSpace(phrase)
	if !final || phrase == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.listening {
		return
	}
	if strings.TrimSpace(v.text) == "" {
		v.text = phrase
		return
	}
	v.text = strings.TrimRight(v.text, " ") + " " + phrase
}

// CanSubmit reporta si el control de envio debe estar habilitado.
func (v *View) CanSubmit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canSubmitLocked()
}

func (v *View) canSubmitLocked() bool {
	return v.state != StateSubmitting && (strings.TrimSpace(v.text) != "" || v.image != "")
}

// Submit genera la especificacion. Devuelve false sin error cuando no hay nada que enviar.
func (v *View) Submit(ctx context.Context) (bool, error) {
	v.mu.Lock()
	if v.state == StateSubmitting {
		v.mu.Unlock()
		return false, ErrSubmitInFlight
	}
	if !v.canSubmitLocked() {
		v.mu.Unlock()
		return false, nil
	}
	idea := strings.TrimSpace(v.text)
	image := v.image
	v.state = StateSubmitting
	v.result = nil
	v.err = nil
	v.mu.Unlock()

	spec, err := v.generator.GenerateSpec(ctx, idea, image)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = StateFailed
		v.err = err
		return true, err
	}
	v.state = StateSuccess
	v.result = &spec
	return true, nil
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := Snapshot{
		State:     v.state,
		Text:      v.text,
		HasImage:  v.image != "",
		Listening: v.listening,
		Err:       v.err,
	}
	if v.result != nil {
		res := *v.result
		snap.Result = &res
	}
	return snap
}
