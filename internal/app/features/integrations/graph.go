// internal/app/features/integrations/graph.go
package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/taskflow/internal/domain/models"
)

const graphBase = "https://graph.microsoft.com/v1.0"

// graphTaskList is one of the user's To Do lists.
type graphTaskList struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// graphTask is a task inside a list. Microsoft returns due dates as a
// local wall-clock time plus a time zone name; see parseGraphTime.
type graphTask struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Importance string `json:"importance"`
	Body       struct {
		Content string `json:"content"`
	} `json:"body"`
	DueDateTime       *graphDateTime `json:"dueDateTime"`
	CompletedDateTime *graphDateTime `json:"completedDateTime"`
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// fetchLists pulls all of the user's To Do lists, following paging
// links until exhausted.
func fetchLists(ctx context.Context, client *http.Client) ([]graphTaskList, error) {
	var out []graphTaskList
	url := graphBase + "/me/todo/lists"
	for url != "" {
		var page struct {
			Value    []graphTaskList `json:"value"`
			NextLink string          `json:"@odata.nextLink"`
		}
		if err := getJSON(ctx, client, url, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		url = page.NextLink
	}
	return out, nil
}

// fetchTasks pulls all tasks in one list.
func fetchTasks(ctx context.Context, client *http.Client, listID string) ([]graphTask, error) {
	var out []graphTask
	url := fmt.Sprintf("%s/me/todo/lists/%s/tasks", graphBase, listID)
	for url != "" {
		var page struct {
			Value    []graphTask `json:"value"`
			NextLink string      `json:"@odata.nextLink"`
		}
		if err := getJSON(ctx, client, url, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		url = page.NextLink
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph request %s returned %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// parseGraphTime converts a Graph dateTimeTimeZone value to UTC. The
// DateTime field has no offset; the zone name qualifies it.
func parseGraphTime(dt *graphDateTime) *time.Time {
	if dt == nil || dt.DateTime == "" {
		return nil
	}
	loc, err := time.LoadLocation(dt.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	for _, layout := range []string{"2006-01-02T15:04:05.0000000", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, dt.DateTime, loc); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// coerceGraphStatus maps Graph task statuses onto the task vocabulary.
func coerceGraphStatus(s string) string {
	switch s {
	case "completed":
		return models.StatusDone
	case "inProgress":
		return models.StatusInProgress
	default:
		return models.StatusTodo
	}
}

// coerceGraphImportance maps Graph importance onto the priority
// vocabulary. Graph's "normal" is our medium.
func coerceGraphImportance(s string) string {
	switch s {
	case "high":
		return models.PriorityHigh
	case "low":
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
