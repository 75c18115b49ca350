package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// OrgFile is the organization configuration file
//
//	[org]
//	ceo = "U001"
//	admins = ["U002"]
//	members = ["U009"]
//	default_route = "developer"
//
//	[[org.manager]]
//	id = "U003"
//	reports = ["U004", "U005"]
//
//	[[org.user]]
//	id = "U004"
//	route = "sales"
//	github = "alice"
//	notion = "alice@example.com"
type OrgFile struct {
	Org OrgSection `toml:"org"`
}

type OrgSection struct {
	CEO          string        `toml:"ceo"`
	Admins       []string      `toml:"admins"`
	Members      []string      `toml:"members"`
	DefaultRoute string        `toml:"default_route"`
	Managers     []OrgManager  `toml:"manager"`
	Users        []OrgUserSpec `toml:"user"`
}

type OrgManager struct {
	ID      string   `toml:"id"`
	Reports []string `toml:"reports"`
}

// OrgUserSpec carries per-user settings: the default route of messages the
// user sends and the user's identities in issue trackers
type OrgUserSpec struct {
	ID     string `toml:"id"`
	Route  string `toml:"route"`
	GitHub string `toml:"github"`
	Notion string `toml:"notion"`
}

// Validate checks the organization for structural errors
func (f *OrgFile) Validate() error {
	o := &f.Org
	if o.CEO == "" {
		return goerr.Wrap(ErrMissingCEO, "org.ceo is required")
	}

	if o.DefaultRoute != "" {
		if !types.Route(o.DefaultRoute).IsValid() {
			return goerr.Wrap(ErrInvalidRoute, "invalid default route", goerr.V(RouteKey, o.DefaultRoute))
		}
	}

	for _, id := range o.Admins {
		if id == "" {
			return goerr.Wrap(ErrInvalidConfig, "empty admin ID")
		}
	}
	for _, id := range o.Members {
		if id == "" {
			return goerr.Wrap(ErrInvalidConfig, "empty member ID")
		}
	}

	managers := make(map[string]struct{}, len(o.Managers))
	for _, m := range o.Managers {
		if m.ID == "" {
			return goerr.Wrap(ErrInvalidConfig, "manager ID is required")
		}
		if _, dup := managers[m.ID]; dup {
			return goerr.Wrap(ErrDuplicateUserID, "manager is defined twice", goerr.V(ManagerIDKey, m.ID))
		}
		managers[m.ID] = struct{}{}
		for _, r := range m.Reports {
			if r == "" {
				return goerr.Wrap(ErrInvalidConfig, "empty report ID", goerr.V(ManagerIDKey, m.ID))
			}
			if r == m.ID {
				return goerr.Wrap(ErrReportingCycle, "manager reports to self", goerr.V(ManagerIDKey, m.ID))
			}
		}
	}
	if err := checkReportingCycles(o.Managers); err != nil {
		return err
	}

	hierarchy := f.Hierarchy()
	users := make(map[string]struct{}, len(o.Users))
	for _, u := range o.Users {
		if u.ID == "" {
			return goerr.Wrap(ErrInvalidConfig, "user ID is required")
		}
		if _, dup := users[u.ID]; dup {
			return goerr.Wrap(ErrDuplicateUserID, "user is defined twice", goerr.V(UserIDKey, u.ID))
		}
		users[u.ID] = struct{}{}

		if !hierarchy.Contains(types.UserID(u.ID)) {
			return goerr.Wrap(ErrUnknownUser, "user settings for unknown user", goerr.V(UserIDKey, u.ID))
		}
		if u.Route != "" && !types.Route(u.Route).IsValid() {
			return goerr.Wrap(ErrInvalidRoute, "invalid user route", goerr.V(UserIDKey, u.ID), goerr.V(RouteKey, u.Route))
		}
	}

	return nil
}

func checkReportingCycles(managers []OrgManager) error {
	reports := make(map[string][]string, len(managers))
	for _, m := range managers {
		reports[m.ID] = m.Reports
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(reports))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return goerr.Wrap(ErrReportingCycle, "reporting line loops back", goerr.V(ManagerIDKey, id))
		case done:
			return nil
		}
		state[id] = visiting
		for _, r := range reports[id] {
			if err := visit(r); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, m := range managers {
		if err := visit(m.ID); err != nil {
			return err
		}
	}
	return nil
}

// Hierarchy converts the file into the read-only org hierarchy
func (f *OrgFile) Hierarchy() *model.OrgHierarchy {
	o := &f.Org
	h := &model.OrgHierarchy{
		CEOID:            types.UserID(o.CEO),
		AdminIDs:         make(map[types.UserID]struct{}, len(o.Admins)),
		ManagerToReports: make(map[types.UserID][]types.UserID, len(o.Managers)),
		Members:          make(map[types.UserID]struct{}, len(o.Members)),
	}
	for _, id := range o.Admins {
		h.AdminIDs[types.UserID(id)] = struct{}{}
	}
	for _, m := range o.Managers {
		reports := make([]types.UserID, len(m.Reports))
		for i, r := range m.Reports {
			reports[i] = types.UserID(r)
		}
		h.ManagerToReports[types.UserID(m.ID)] = reports
	}
	for _, id := range o.Members {
		h.Members[types.UserID(id)] = struct{}{}
	}
	return h
}

// DefaultRoutes returns the route applied to messages of each sender
func (f *OrgFile) DefaultRoutes() *usecase.DefaultRoutes {
	routes := &usecase.DefaultRoutes{
		Fallback: types.Route(f.Org.DefaultRoute),
		ByUser:   make(map[types.UserID]types.Route),
	}
	for _, u := range f.Org.Users {
		if u.Route != "" {
			routes.ByUser[types.UserID(u.ID)] = types.Route(u.Route)
		}
	}
	return routes
}

// GitHubUsers maps GitHub logins to user IDs
func (f *OrgFile) GitHubUsers() map[string]types.UserID {
	users := make(map[string]types.UserID)
	for _, u := range f.Org.Users {
		if u.GitHub != "" {
			users[u.GitHub] = types.UserID(u.ID)
		}
	}
	return users
}

// GitHubLogins lists the GitHub logins of the organization's users
func (f *OrgFile) GitHubLogins() []string {
	var logins []string
	for _, u := range f.Org.Users {
		if u.GitHub != "" {
			logins = append(logins, u.GitHub)
		}
	}
	return logins
}

// NotionUsers maps Notion user IDs or e-mail addresses to user IDs
func (f *OrgFile) NotionUsers() map[string]types.UserID {
	users := make(map[string]types.UserID)
	for _, u := range f.Org.Users {
		if u.Notion != "" {
			users[u.Notion] = types.UserID(u.ID)
		}
	}
	return users
}

// LoadOrgFile reads and validates an organization file
func LoadOrgFile(path string) (*OrgFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "organization file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read organization file", goerr.V(ConfigPathKey, path))
	}

	var file OrgFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse organization file",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "organization validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}

// Org holds the CLI flag pointing at the organization file
type Org struct {
	path string
}

func (x *Org) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "org-config",
			Usage:       "Path to the organization TOML file",
			Category:    "Organization",
			Sources:     cli.EnvVars("KOTTOS_ORG_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Path returns the configured file path
func (x *Org) Path() string {
	return x.path
}

// Configure loads the organization file. Without a path an empty file is
// returned: every user is then a plain user who sees only their own tasks.
func (x *Org) Configure() (*OrgFile, error) {
	if x.path == "" {
		return &OrgFile{}, nil
	}
	return LoadOrgFile(x.path)
}
