package spec

// In-memory model of an API description. Field tags carry the document
// attribute names (yaml) and the required-attribute rules (validate).

type API struct {
	Name        string       `yaml:"name" json:"name" validate:"required"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Base        StringList   `yaml:"base,omitempty" json:"base,omitempty"`
	Resources   []*Resource  `yaml:"resources" json:"resources" validate:"dive"`
	DataTypes   []*NamedType `yaml:"dataTypes,omitempty" json:"dataTypes,omitempty" validate:"dive"`
	Ownership   []*Owner     `yaml:"ownership,omitempty" json:"ownership,omitempty" validate:"dive"`
	SLA         []*SLA       `yaml:"sla,omitempty" json:"sla,omitempty" validate:"dive"`
	Version     *Version     `yaml:"version,omitempty" json:"version,omitempty"`
	License     string       `yaml:"license,omitempty" json:"license,omitempty"`
	Community   string       `yaml:"community,omitempty" json:"community,omitempty"`
	Categories  StringList   `yaml:"categories,omitempty" json:"categories,omitempty"`
	Tags        StringList   `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Location is the file path or URL the description was loaded from.
	Location string `yaml:"-" json:"-"`

	validated bool
	types     map[string]*NamedType
}

// TypeByName returns the named data type, declared or synthetic.
func (a *API) TypeByName(name string) (*NamedType, bool) {
	if a.types == nil {
		a.indexTypes()
	}
	t, ok := a.types[name]
	return t, ok
}

func (a *API) indexTypes() {
	a.types = make(map[string]*NamedType, len(a.DataTypes))
	for _, t := range a.DataTypes {
		a.types[t.Name] = t
	}
}

// NamedType is a composite registered in the API's type table. Synthetic
// types were promoted from anonymous composites while loading.
type NamedType struct {
	Name      string `yaml:"name" json:"name" validate:"required"`
	Composite `yaml:",inline"`
	Synthetic bool `yaml:"-" json:"-"`
}

type Field struct {
	Name        string    `yaml:"name" json:"name" validate:"required"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Optional    bool      `yaml:"optional,omitempty" json:"optional,omitempty"`
	Type        *TypeExpr `yaml:"type" json:"type" validate:"required"`
	Ref         string    `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// Binding describes how a value travels with a request.
type Binding struct {
	Mode string    `yaml:"mode" json:"mode" validate:"required"`
	Name string    `yaml:"name" json:"name" validate:"required"`
	Type *TypeExpr `yaml:"type" json:"type" validate:"required"`
	Ref  string    `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// NamedBinding is a resource-level binding that parameters reference by ID.
type NamedBinding struct {
	ID      string `yaml:"id" json:"id" validate:"required"`
	Binding `yaml:",inline"`
}

// Parameter is either an inline binding or a reference to a resource binding.
type Parameter struct {
	BindingID   string    `yaml:"binding,omitempty" json:"binding,omitempty"`
	Mode        string    `yaml:"mode,omitempty" json:"mode,omitempty"`
	Name        string    `yaml:"name,omitempty" json:"name,omitempty"`
	Type        *TypeExpr `yaml:"type,omitempty" json:"type,omitempty" validate:"required_without=BindingID"`
	Ref         string    `yaml:"ref,omitempty" json:"ref,omitempty"`
	Optional    bool      `yaml:"optional,omitempty" json:"optional,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	resolved    *Binding
}

// Resolved returns the effective binding: the resource binding the parameter
// refers to, or its own inline binding. It is only valid after validation.
func (p *Parameter) Resolved() *Binding {
	if p.resolved != nil {
		return p.resolved
	}
	return &Binding{Mode: p.Mode, Name: p.Name, Type: p.Type, Ref: p.Ref}
}

type Input struct {
	ContentTypes StringList   `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	Type         *TypeExpr    `yaml:"type,omitempty" json:"type,omitempty"`
	Ref          string       `yaml:"ref,omitempty" json:"ref,omitempty"`
	Params       []*Parameter `yaml:"params,omitempty" json:"params,omitempty" validate:"dive"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
}

type Header struct {
	Name        string    `yaml:"name" json:"name" validate:"required"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Type        *TypeExpr `yaml:"type" json:"type" validate:"required"`
	Ref         string    `yaml:"ref,omitempty" json:"ref,omitempty"`
}

type Output struct {
	Status       int        `yaml:"status" json:"status" validate:"required"`
	ContentTypes StringList `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	Type         *TypeExpr  `yaml:"type,omitempty" json:"type,omitempty"`
	Ref          string     `yaml:"ref,omitempty" json:"ref,omitempty"`
	Headers      []*Header  `yaml:"headers,omitempty" json:"headers,omitempty" validate:"dive"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
}

type ErrorCase struct {
	Status int    `yaml:"status" json:"status" validate:"required"`
	Cause  string `yaml:"cause" json:"cause"`
}

type Operation struct {
	Name        string       `yaml:"name" json:"name" validate:"required"`
	Method      string       `yaml:"method" json:"method" validate:"required"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Input       *Input       `yaml:"input,omitempty" json:"input,omitempty"`
	Output      *Output      `yaml:"output" json:"output" validate:"required"`
	Errors      []*ErrorCase `yaml:"errors,omitempty" json:"errors,omitempty" validate:"dive"`
	Requires    StringList   `yaml:"requires,omitempty" json:"requires,omitempty"`
	Ensures     StringList   `yaml:"ensures,omitempty" json:"ensures,omitempty"`
}

// ErrorTable maps declared error statuses to their cause text.
func (o *Operation) ErrorTable() map[int]string {
	table := make(map[int]string, len(o.Errors))
	for _, e := range o.Errors {
		table[e.Status] = e.Cause
	}
	return table
}

// HasBody reports whether the operation sends an entity body.
func (o *Operation) HasBody() bool {
	return o.Method == "POST" || o.Method == "PUT"
}

type Resource struct {
	Name       string          `yaml:"name" json:"name" validate:"required"`
	Path       string          `yaml:"path" json:"path" validate:"required"`
	Bindings   []*NamedBinding `yaml:"inputBindings,omitempty" json:"inputBindings,omitempty" validate:"dive"`
	Operations []*Operation    `yaml:"operations" json:"operations" validate:"required,dive"`
}

// BindingByID returns the resource binding with the given id.
func (r *Resource) BindingByID(id string) (*NamedBinding, bool) {
	for _, b := range r.Bindings {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

type Owner struct {
	Name      string `yaml:"name" json:"name" validate:"required"`
	Email     string `yaml:"email" json:"email" validate:"required"`
	OwnerType string `yaml:"ownerType" json:"ownerType" validate:"required"`
}

type CostModel struct {
	Currency        string   `yaml:"currency" json:"currency" validate:"required"`
	UnitPrice       *float64 `yaml:"unitPrice" json:"unitPrice" validate:"required"`
	RequestsPerUnit *int     `yaml:"requestsPerUnit" json:"requestsPerUnit" validate:"required"`
}

type SLA struct {
	Name         string     `yaml:"name" json:"name" validate:"required"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	Availability float64    `yaml:"availability,omitempty" json:"availability,omitempty"`
	RateLimit    int        `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	TimeUnit     string     `yaml:"timeUnit,omitempty" json:"timeUnit,omitempty" validate:"required_with=RateLimit"`
	CostModel    *CostModel `yaml:"costModel,omitempty" json:"costModel,omitempty"`
}

type Version struct {
	ID       string `yaml:"id" json:"id" validate:"required"`
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`
}
