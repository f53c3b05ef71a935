package output

import (
	"fmt"
	"strconv"

	"github.com/faceofmind/admin-sync/internal/model"
)

// Users prints one page of the user list.
func (p *Printer) Users(page model.UserPage) error {
	p.Header(fmt.Sprintf("Users (page %d, %d total, %d active now)", page.Page, page.Total, page.ActiveUsersCount))

	if len(page.Results) == 0 {
		p.Info("%s", p.Dim("no users match"))
		return nil
	}

	t := NewTable(p.out, []string{"ID", "Name", "Email", "Role", "Status", "Online", "Joined"})
	for _, u := range page.Results {
		online := ""
		if u.ActiveInRedis {
			online = "yes"
		}
		t.AddRow(
			strconv.FormatInt(u.ID, 10),
			u.FullName(),
			u.Email,
			u.Role,
			p.StatusBadge(string(u.Status)),
			online,
			u.CreatedAt,
		)
	}
	return t.Render()
}
