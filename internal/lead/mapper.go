package lead

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// emailRe accepts the basic local@domain.tld shape. The CRM performs its own
// deliverability checks; this only rejects obviously malformed input.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validation is the outcome of mapping a form. User-input problems are never
// returned as error values: the route handler renders Errors next to the form
// fields and decides the HTTP status.
type Validation struct {
	Valid  bool
	Errors []string
}

// GeneralContactForm is the portal's general inquiry form.
type GeneralContactForm struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	InquiryType string `json:"inquiryType"`
}

// PropertyContactForm is the inquiry form shown on a property listing page.
type PropertyContactForm struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Message       string `json:"message"`
	PropertyTitle string `json:"propertyTitle"`
	AgentName     string `json:"agentName"`
}

// Vocabulary is the tag and label table the mapper draws from. It is injected
// so tenants can relabel or localize without a code change.
type Vocabulary struct {
	// InquiryTags maps the general form's inquiry-type value to a tag.
	InquiryTags map[string]string `yaml:"inquiry_tags"`

	// DefaultInquiryTag is used for unrecognized inquiry types.
	DefaultInquiryTag string `yaml:"default_inquiry_tag"`

	// PortalTag identifies the portal as lead origin on every submission.
	PortalTag string `yaml:"portal_tag"`

	// ContactSource and PropertySource label the two capture channels.
	ContactSource  string `yaml:"contact_source"`
	PropertySource string `yaml:"property_source"`
}

// DefaultVocabulary returns the compiled-in tag table.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		InquiryTags: map[string]string{
			"comprar":   "Interesado en Comprar",
			"vender":    "Interesado en Vender",
			"arrendar":  "Interesado en Arrendar",
			"inversion": "Inversionista",
			"propiedad": "Consulta Propiedad",
			"otro":      "Consulta General",
		},
		DefaultInquiryTag: "Consulta General",
		PortalTag:         "Portal Inmobiliario",
		ContactSource:     "Página de Contacto",
		PropertySource:    "Página de Propiedad",
	}
}

// LoadVocabulary reads a Vocabulary from a YAML file. Fields left empty in the
// file fall back to the compiled-in defaults.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, eris.Wrapf(err, "lead: read vocabulary %s", path)
	}

	vocab := DefaultVocabulary()
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return Vocabulary{}, eris.Wrapf(err, "lead: parse vocabulary %s", path)
	}
	return vocab, nil
}

// Mapper turns inbound portal forms into normalized lead requests.
type Mapper struct {
	countryCode string
	vocab       Vocabulary
}

// NewMapper creates a Mapper with the given default phone country code and
// tag vocabulary.
func NewMapper(countryCode string, vocab Vocabulary) *Mapper {
	return &Mapper{countryCode: countryCode, vocab: vocab}
}

// MapGeneralContact validates and maps the general inquiry form. When the
// returned Validation is not Valid, the Request is zero and must not be
// submitted.
func (m *Mapper) MapGeneralContact(form GeneralContactForm) (Request, Validation) {
	var errs []string
	first := strings.TrimSpace(form.FirstName)
	last := strings.TrimSpace(form.LastName)
	email := strings.TrimSpace(form.Email)
	message := strings.TrimSpace(form.Message)

	if first == "" {
		errs = append(errs, "el nombre es obligatorio")
	}
	if last == "" {
		errs = append(errs, "el apellido es obligatorio")
	}
	if email == "" {
		errs = append(errs, "el correo electrónico es obligatorio")
	} else if !emailRe.MatchString(email) {
		errs = append(errs, "el correo electrónico no es válido")
	}
	if message == "" {
		errs = append(errs, "el mensaje es obligatorio")
	}
	if len(errs) > 0 {
		return Request{}, Validation{Errors: errs}
	}

	inquiryTag, ok := m.vocab.InquiryTags[strings.ToLower(strings.TrimSpace(form.InquiryType))]
	if !ok {
		inquiryTag = m.vocab.DefaultInquiryTag
	}

	return Request{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     NormalizePhone(form.Phone, m.countryCode),
		Message:   message,
		Tags:      []string{"Website Lead", m.vocab.PortalTag, inquiryTag},
		Source:    m.vocab.ContactSource,
	}, Validation{Valid: true}
}

// MapPropertyContact validates and maps the property inquiry form. The single
// full-name field is split on the first whitespace run; missing halves default
// to "Sin" / "Nombre" so the CRM always receives both names.
func (m *Mapper) MapPropertyContact(form PropertyContactForm) (Request, Validation) {
	var errs []string
	fullName := strings.TrimSpace(form.FullName)
	email := strings.TrimSpace(form.Email)
	message := strings.TrimSpace(form.Message)

	if fullName == "" {
		errs = append(errs, "el nombre es obligatorio")
	}
	if email == "" {
		errs = append(errs, "el correo electrónico es obligatorio")
	} else if !emailRe.MatchString(email) {
		errs = append(errs, "el correo electrónico no es válido")
	}
	if message == "" {
		errs = append(errs, "el mensaje es obligatorio")
	}
	if len(errs) > 0 {
		return Request{}, Validation{Errors: errs}
	}

	first, last := splitFullName(fullName)

	tags := []string{"Website Lead", m.vocab.PortalTag, "Consulta Propiedad"}
	title := strings.TrimSpace(form.PropertyTitle)
	if title != "" {
		tags = append(tags, "Propiedad: "+truncate(title, 30))
	}
	if agent := strings.TrimSpace(form.AgentName); agent != "" {
		tags = append(tags, "Agente: "+agent)
	}

	oppName := fmt.Sprintf("Lead Propiedad: %s %s", first, last)
	if title != "" {
		oppName = fmt.Sprintf("Lead: %s - %s", first, truncate(title, 40))
	}

	return Request{
		FirstName:       first,
		LastName:        last,
		Email:           email,
		Phone:           NormalizePhone(form.Phone, m.countryCode),
		Message:         message,
		Tags:            tags,
		OpportunityName: oppName,
		Source:          m.vocab.PropertySource,
	}, Validation{Valid: true}
}

// splitFullName takes the first whitespace-delimited token as the first name
// and the joined remainder as the last name.
func splitFullName(fullName string) (first, last string) {
	fields := strings.Fields(fullName)
	if len(fields) > 0 {
		first = fields[0]
	}
	if len(fields) > 1 {
		last = strings.Join(fields[1:], " ")
	}
	if first == "" {
		first = "Sin"
	}
	if last == "" {
		last = "Nombre"
	}
	return first, last
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
