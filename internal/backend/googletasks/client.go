// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasklist/internal/config"
	"tasklist/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"

	listPageSize = 100
)

// ErrAuth marks responses that need a new login.
var ErrAuth = errors.New("token expired or revoked (run: tasklist login)")

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc *tasks.Service
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := LoadToken(cfg)
	if err != nil {
		return nil, err
	}

	// Token source refreshes automatically
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and endpoint (for testing).
// An empty endpoint uses the production API.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc}, nil
}

// call runs fn with the per-request timeout and maps its error.
func call[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, wrapError(ctx, err)
	}
	return v, nil
}

// DefaultList returns the user's default task list.
func (c *Client) DefaultList(ctx context.Context) (service.TaskList, error) {
	list, err := call(ctx, func(ctx context.Context) (*tasks.TaskList, error) {
		return c.svc.Tasklists.Get(DefaultListID).Context(ctx).Do()
	})
	if err != nil {
		return service.TaskList{}, err
	}
	return service.TaskList{ID: DefaultListID, Title: list.Title, IsDefault: true}, nil
}

// ListLists returns all task lists in API order. The default list is
// reported under DefaultListID.
func (c *Client) ListLists(ctx context.Context) ([]service.TaskList, error) {
	return call(ctx, func(ctx context.Context) ([]service.TaskList, error) {
		def, err := c.svc.Tasklists.Get(DefaultListID).Context(ctx).Do()
		if err != nil {
			return nil, err
		}

		var result []service.TaskList
		err = c.svc.Tasklists.List().MaxResults(listPageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
			for _, list := range resp.Items {
				tl := service.TaskList{ID: list.Id, Title: list.Title}
				if list.Id == def.Id {
					tl.ID = DefaultListID
					tl.IsDefault = true
				}
				result = append(result, tl)
			}
			return nil
		})
		return result, err
	})
}

// ResolveList finds a list by name (case-insensitive, trimmed).
func (c *Client) ResolveList(ctx context.Context, name string) (service.TaskList, error) {
	lists, err := c.ListLists(ctx)
	if err != nil {
		return service.TaskList{}, err
	}
	return MatchList(lists, name)
}

// MatchList picks the single list whose title equals name, ignoring case and
// surrounding space.
func MatchList(lists []service.TaskList, name string) (service.TaskList, error) {
	name = strings.TrimSpace(name)

	var matches []service.TaskList
	for _, list := range lists {
		if strings.EqualFold(strings.TrimSpace(list.Title), name) {
			matches = append(matches, list)
		}
	}

	switch len(matches) {
	case 0:
		return service.TaskList{}, fmt.Errorf("list %w: %s", service.ErrNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return service.TaskList{}, fmt.Errorf("%w list name: %s", service.ErrAmbiguous, name)
	}
}

// CreateList creates a new task list.
func (c *Client) CreateList(ctx context.Context, name string) (service.TaskList, error) {
	list, err := call(ctx, func(ctx context.Context) (*tasks.TaskList, error) {
		return c.svc.Tasklists.Insert(&tasks.TaskList{Title: name}).Context(ctx).Do()
	})
	if err != nil {
		return service.TaskList{}, err
	}
	return service.TaskList{ID: list.Id, Title: list.Title}, nil
}

// CreateTask inserts a task at the top of the specified list.
func (c *Client) CreateTask(ctx context.Context, listID string, t service.Task) error {
	status := statusNeedsAction
	if t.Completed {
		status = statusCompleted
	}
	_, err := call(ctx, func(ctx context.Context) (*tasks.Task, error) {
		return c.svc.Tasks.Insert(listID, &tasks.Task{
			Title:  t.Title,
			Notes:  t.Notes,
			Status: status,
		}).Context(ctx).Do()
	})
	return err
}

// wrapError turns API failures into errors the CLI can report as is.
func wrapError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAuth
		case http.StatusNotFound:
			return service.ErrNotFound
		}
		return fmt.Errorf("google tasks: %d %s", apiErr.Code, strings.TrimSpace(apiErr.Message))
	}

	// Token refresh failures surface from the oauth2 transport
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ErrAuth
	}
	return err
}
