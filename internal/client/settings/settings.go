// Package settings defines the configuration document edited by the configurator.
//
// Every object level is an open record: the fields the client knows about are
// typed, everything else is kept in Extra as raw JSON and written back verbatim.
package settings

import (
	"encoding/json"
	"fmt"
)

// Extra holds keys the client does not model, exactly as they were received.
type Extra map[string]json.RawMessage

// Settings is the full document bound to a passcode.
type Settings struct {
	PodBean PodBean
	YouTube YouTube
	// Pickle is optional; nil means the section was absent.
	Pickle *Pickle
	Server Server
	Extra  Extra

	absent keySet
}

// PodBean holds the podcast publishing credentials.
type PodBean struct {
	ClientID     string
	ClientSecret string
	Extra        Extra

	absent keySet
}

// YouTube holds the video platform polling settings.
type YouTube struct {
	ChannelID            string
	PollingRate          float64
	TitlePattern         string
	TitleNegativePattern string
	CustomVideos         []string
	Extra                Extra

	absent keySet
}

// Pickle is internal bookkeeping. All of its fields are optional.
type Pickle struct {
	AccessCode      *string
	Processed       *string
	PlaylistHistory *string
	Extra           Extra
}

// Server holds the network settings of the remote application.
type Server struct {
	Host       string
	Port       string
	PublicHost string
	Extra      Extra

	absent keySet
}

// Has reports whether the known section key ("PodBean", "YouTube", "Pickle",
// "Server") was part of the document.
func (s *Settings) Has(key string) bool {
	if key == "Pickle" {
		return s.Pickle != nil
	}
	return !s.absent.has(key)
}

// Has reports whether the known key was part of the document.
func (p *PodBean) Has(key string) bool { return !p.absent.has(key) }

// Has reports whether the known key was part of the document.
func (y *YouTube) Has(key string) bool { return !y.absent.has(key) }

// Has reports whether the known key was part of the document.
func (s *Server) Has(key string) bool { return !s.absent.has(key) }

// Parse decodes a settings document. Known keys missing from data stay
// missing when the document is encoded again.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

// Clone returns a deep copy of s.
func (s *Settings) Clone() (*Settings, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone settings: %w", err)
	}
	return Parse(b)
}

func (s *Settings) sections() []field {
	return []field{
		{"PodBean", &s.PodBean},
		{"YouTube", &s.YouTube},
		{"Server", &s.Server},
	}
}

func (s Settings) MarshalJSON() ([]byte, error) {
	o := newObject(s.Extra)
	if err := o.putAll(s.sections(), s.absent); err != nil {
		return nil, err
	}
	if s.Pickle != nil {
		if err := o.put("Pickle", s.Pickle); err != nil {
			return nil, err
		}
	}
	return json.Marshal(o.fields)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	o, err := splitObject(data)
	if err != nil {
		return err
	}
	*s = Settings{}
	if s.absent, err = o.takeAll(s.sections()); err != nil {
		return err
	}
	if err := o.take("Pickle", &s.Pickle); err != nil {
		return err
	}
	s.Extra = o.rest()
	return nil
}

func (p *PodBean) known() []field {
	return []field{
		{"ClientId", &p.ClientID},
		{"ClientSecret", &p.ClientSecret},
	}
}

func (p PodBean) MarshalJSON() ([]byte, error) {
	o := newObject(p.Extra)
	if err := o.putAll(p.known(), p.absent); err != nil {
		return nil, err
	}
	return json.Marshal(o.fields)
}

func (p *PodBean) UnmarshalJSON(data []byte) error {
	o, err := splitObject(data)
	if err != nil {
		return err
	}
	*p = PodBean{}
	if p.absent, err = o.takeAll(p.known()); err != nil {
		return err
	}
	p.Extra = o.rest()
	return nil
}

func (y *YouTube) known() []field {
	return []field{
		{"ChannelId", &y.ChannelID},
		{"PollingRate", &y.PollingRate},
		{"TitlePattern", &y.TitlePattern},
		{"TitleNegativePattern", &y.TitleNegativePattern},
		{"CustomVideos", &y.CustomVideos},
	}
}

func (y YouTube) MarshalJSON() ([]byte, error) {
	o := newObject(y.Extra)
	if err := o.putAll(y.known(), y.absent); err != nil {
		return nil, err
	}
	return json.Marshal(o.fields)
}

func (y *YouTube) UnmarshalJSON(data []byte) error {
	o, err := splitObject(data)
	if err != nil {
		return err
	}
	*y = YouTube{}
	if y.absent, err = o.takeAll(y.known()); err != nil {
		return err
	}
	y.Extra = o.rest()
	return nil
}

func (p Pickle) MarshalJSON() ([]byte, error) {
	o := newObject(p.Extra)
	for _, f := range []struct {
		key string
		val *string
	}{
		{"AccessCode", p.AccessCode},
		{"Processed", p.Processed},
		{"PlaylistHistory", p.PlaylistHistory},
	} {
		if f.val == nil {
			continue
		}
		if err := o.put(f.key, *f.val); err != nil {
			return nil, err
		}
	}
	return json.Marshal(o.fields)
}

func (p *Pickle) UnmarshalJSON(data []byte) error {
	o, err := splitObject(data)
	if err != nil {
		return err
	}
	*p = Pickle{}
	if err := o.take("AccessCode", &p.AccessCode); err != nil {
		return err
	}
	if err := o.take("Processed", &p.Processed); err != nil {
		return err
	}
	if err := o.take("PlaylistHistory", &p.PlaylistHistory); err != nil {
		return err
	}
	p.Extra = o.rest()
	return nil
}

func (s *Server) known() []field {
	return []field{
		{"Host", &s.Host},
		{"Port", &s.Port},
		{"PublicHost", &s.PublicHost},
	}
}

func (s Server) MarshalJSON() ([]byte, error) {
	o := newObject(s.Extra)
	if err := o.putAll(s.known(), s.absent); err != nil {
		return nil, err
	}
	return json.Marshal(o.fields)
}

func (s *Server) UnmarshalJSON(data []byte) error {
	o, err := splitObject(data)
	if err != nil {
		return err
	}
	*s = Server{}
	if s.absent, err = o.takeAll(s.known()); err != nil {
		return err
	}
	s.Extra = o.rest()
	return nil
}
