package domain

// Colores de Discord que usa el bot (mismos valores que discord.Color).
const (
	ColorBlue    = 0x3498DB
	ColorGreen   = 0x2ECC71
	ColorRed     = 0xE74C3C
	ColorBlurple = 0x7289DA
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed es el cuerpo estructurado que se manda o se lee de vuelta de un mensaje.
// No depende de discordgo: el adapter se encarga de convertirlo.
type Embed struct {
	Title       string
	Description string
	Footer      string
	Color       int
	Fields      []Field
}

type EmbedOption func(*Embed)

func WithTitle(t string) EmbedOption { return func(e *Embed) { e.Title = t } }

func WithColor(c int) EmbedOption { return func(e *Embed) { e.Color = c } }

func WithBody(b string) EmbedOption { return func(e *Embed) { e.Description = b } }

func WithFooter(f string) EmbedOption { return func(e *Embed) { e.Footer = f } }

// WithFields copia los campos en orden; Inline queda en false salvo que venga seteado.
func WithFields(fields ...Field) EmbedOption {
	return func(e *Embed) {
		e.Fields = append(e.Fields, fields...)
	}
}

// NewEmbed arma un Embed azul por defecto y aplica las opciones en orden.
func NewEmbed(opts ...EmbedOption) Embed {
	e := Embed{Color: ColorBlue}
	for _, o := range opts {
		o(&e)
	}
	return e
}
