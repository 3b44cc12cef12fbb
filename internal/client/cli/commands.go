package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/silentvoice/internal/client/client"
	"github.com/dmitrijs2005/silentvoice/internal/client/models"
	"github.com/dmitrijs2005/silentvoice/internal/client/services"
	"github.com/dmitrijs2005/silentvoice/internal/common"
)

// getSimpleText, getMultiline and getSecret point at the interactive input
// helpers and are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
	getSecret     = GetSecret
)

var errUsage = errors.New("usage")

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return strings.TrimPrefix(err.Error(), "usage: ")
	case services.IsWrongPassphrase(err):
		return "wrong passphrase or corrupted bundle"
	case errors.Is(err, common.ErrBundleFormat):
		return "not a Silent Voice bundle"
	case errors.Is(err, client.ErrNotLoggedIn), errors.Is(err, common.ErrorUnauthorized):
		return "please log in first"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again when online"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	case errors.Is(err, common.ErrRateLimited):
		return "too many attempts, wait a moment"
	case errors.Is(err, common.ErrorValidation):
		return strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	default:
		return err.Error()
	}
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	expiresAt, err := a.auth.SendOtp(ctx, email)
	if err != nil {
		return err
	}
	a.printf("A login code was sent to %s (valid until %s)\n", email, expiresAt.Local().Format("15:04"))

	code, err := getSimpleText(a.reader, "Enter code", a.out)
	if err != nil {
		return err
	}

	user, err := a.auth.VerifyOtp(ctx, email, code)
	if err != nil {
		return err
	}

	a.setEmail(user.Email)
	a.setMode(ModeOnline)
	a.printf("Logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.setEmail("")
	a.printf("Logged out\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.auth.WhoAmI(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNotLoggedIn) {
			a.setEmail("")
		}
		return err
	}
	a.printf("%s (%s)\n", user.Email, user.Role)
	return nil
}

func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category ("+strings.Join(services.Categories, " / ")+", empty to skip)", a.out)
	if err != nil {
		return err
	}
	body, err := getMultiline(a.reader, "Describe what happened", a.out)
	if err != nil {
		return err
	}

	r, err := a.records.Create(ctx, title, category, body)
	if err != nil {
		return err
	}
	a.printf("Saved report %s\n", r.ID)
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	status := ""
	if len(args) > 0 {
		status = args[0]
	}

	list, err := a.records.List(ctx, status)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No reports\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tRISK\tCREATED\tTITLE\t")
	for _, r := range list {
		mark := ""
		if r.Pending {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%d\t%s\t%s\t\n", r.ID, mark, r.Status, r.RiskScore, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Title)
	}
	return tw.Flush()
}

func oneArg(args []string, cmd string) (string, error) {
	if len(args) != 1 {
		return "", usage("Usage: %s <id>", cmd)
	}
	return args[0], nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := oneArg(args, "show")
	if err != nil {
		return err
	}
	r, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}
	printReport(a, r)
	return nil
}

func printReport(a *App, r *models.Report) {
	a.printf("ID:        %s\n", r.ID)
	a.printf("Title:     %s\n", r.Title)
	a.printf("Category:  %s\n", r.Category)
	a.printf("Status:    %s\n", r.Status)
	a.printf("Assignee:  %s\n", r.Assignee)
	a.printf("Risk:      %d\n", r.RiskScore)
	a.printf("Created:   %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"))
	a.printf("Updated:   %s\n", r.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if r.Pending {
		a.printf("Sync:      pending\n")
	}
	a.printf("\n%s\n", r.Body)
}

// Update prompts for the triage fields; an empty answer keeps the value.
func (a *App) Update(ctx context.Context, args []string) error {
	id, err := oneArg(args, "update")
	if err != nil {
		return err
	}
	r, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}

	var patch models.ReportPatch

	status, err := getSimpleText(a.reader, fmt.Sprintf("Status [%s] (%s)", r.Status, strings.Join(services.Statuses, " / ")), a.out)
	if err != nil {
		return err
	}
	if status != "" {
		patch.Status = &status
	}

	assignee, err := getSimpleText(a.reader, fmt.Sprintf("Assignee [%s]", r.Assignee), a.out)
	if err != nil {
		return err
	}
	if assignee != "" {
		patch.Assignee = &assignee
	}

	risk, err := getSimpleText(a.reader, fmt.Sprintf("Risk score 0-100 [%d]", r.RiskScore), a.out)
	if err != nil {
		return err
	}
	if risk != "" {
		n, err := strconv.Atoi(risk)
		if err != nil {
			return usage("risk score must be a number")
		}
		patch.RiskScore = &n
	}

	if _, err := a.records.Update(ctx, id, patch); err != nil {
		return err
	}
	a.printf("Updated %s\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := oneArg(args, "delete")
	if err != nil {
		return err
	}
	if err := a.records.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted %s\n", id)
	return nil
}

// Logs prints the local audit trail; "logs clear" empties it.
func (a *App) Logs(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		if err := a.records.ClearLogs(ctx); err != nil {
			return err
		}
		a.printf("Log cleared\n")
		return nil
	}

	entries, err := a.records.Logs(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		a.printf("%s  %-18s %s %s\n", e.At.Local().Format("2006-01-02 15:04:05"), e.Action, e.TargetID, e.Detail)
	}
	return nil
}

func (a *App) Export(ctx context.Context) error {
	pass, err := getSecret("Bundle passphrase", a.out)
	if err != nil {
		return err
	}
	path, n, err := a.bundle.Export(ctx, pass)
	if err != nil {
		return err
	}
	a.printf("Exported %d reports to %s\n", n, path)
	return nil
}

func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("Usage: import <file>")
	}
	pass, err := getSecret("Bundle passphrase", a.out)
	if err != nil {
		return err
	}
	n, err := a.bundle.Import(ctx, args[0], pass)
	if err != nil {
		return err
	}
	a.printf("Imported %d reports\n", n)
	return nil
}

func (a *App) AuditCSV(ctx context.Context) error {
	path, err := a.bundle.AuditCSV(ctx)
	if err != nil {
		return err
	}
	a.printf("Audit log written to %s\n", path)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	res, err := a.syncer.Sync(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}
	a.printf("Synced: %d created, %d updated, %d deleted, %d on server\n", res.Created, res.Updated, res.Deleted, res.Pulled)
	return nil
}

func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("Usage: attach <id> <file>")
	}
	res, err := a.syncer.Attach(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if res.Mode == "dryrun" {
		a.printf("Storage is in dry-run mode; %s was registered but not uploaded\n", res.ObjectKey)
		return nil
	}
	a.printf("Uploaded as %s\n", res.ObjectKey)
	return nil
}
