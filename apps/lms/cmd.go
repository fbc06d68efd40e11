package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/learnspace/learnspace/clients/backend"
	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/access"
	"github.com/learnspace/learnspace/core/auth"
	"github.com/learnspace/learnspace/core/identity"
	"github.com/learnspace/learnspace/core/nav"
	"github.com/learnspace/learnspace/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	authSvc   *auth.Service
	api       *backend.Client
	store     *session.Store
	presenter *nav.Presenter
	routes    *access.Routes
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  signin -email EMAIL                      - sign in (password is prompted)")
	fmt.Fprintln(cli.out, "  signup -first NAME -last NAME -email EMAIL -role student|faculty")
	fmt.Fprintln(cli.out, "                                           - register a new account (password is prompted)")
	fmt.Fprintln(cli.out, "  logout                                   - clear the current session")
	fmt.Fprintln(cli.out, "  whoami                                   - show the signed-in user")
	fmt.Fprintln(cli.out, "  menu                                     - show the navigation menu for the current session")
	fmt.Fprintln(cli.out, "  open -path PATH                          - evaluate the route guard for a path")
	fmt.Fprintln(cli.out, "  pending | approved                       - list users by approval status (admin)")
	fmt.Fprintln(cli.out, "  approve -id ID | reject -id ID           - set a user's approval status (admin)")
	fmt.Fprintln(cli.out, "  courses                                  - list courses for the signed-in user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()

	signInCmd := flag.NewFlagSet("signin", flag.ExitOnError)
	signInEmail := signInCmd.String("email", "", "The account's email address. The password will be prompted next.")

	signUpCmd := flag.NewFlagSet("signup", flag.ExitOnError)
	signUpFirst := signUpCmd.String("first", "", "First name.")
	signUpLast := signUpCmd.String("last", "", "Last name.")
	signUpEmail := signUpCmd.String("email", "", "Email address.")
	signUpRole := signUpCmd.String("role", "student", "Account role: student or faculty.")

	openCmd := flag.NewFlagSet("open", flag.ExitOnError)
	openPath := openCmd.String("path", "", "Application path to evaluate, e.g. /faculty/dashboard.")

	approveCmd := flag.NewFlagSet("approve", flag.ExitOnError)
	approveID := approveCmd.String("id", "", "The user ID to approve.")

	rejectCmd := flag.NewFlagSet("reject", flag.ExitOnError)
	rejectID := rejectCmd.String("id", "", "The user ID to reject.")

	switch args[1] {
	case "signin":
		if err := signInCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *signInEmail == "" {
			signInCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			signInCmd.Usage()
			return errHelp
		}
		return cli.signIn(ctx, *signInEmail, string(pwd))
	case "signup":
		if err := signUpCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *signUpFirst == "" || *signUpLast == "" || *signUpEmail == "" {
			signUpCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		fmt.Fprint(cli.out, "Confirm password:")
		confirm, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		return cli.signUp(ctx, *signUpFirst, *signUpLast, *signUpEmail, *signUpRole, string(pwd), string(confirm))
	case "logout":
		return cli.logout()
	case "whoami":
		return cli.whoami()
	case "menu":
		return cli.menu()
	case "open":
		if err := openCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *openPath == "" {
			openCmd.Usage()
			return errHelp
		}
		return cli.open(*openPath)
	case "pending":
		return cli.listUsers(ctx, identity.StatusPending)
	case "approved":
		return cli.listUsers(ctx, identity.StatusApproved)
	case "approve":
		if err := approveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *approveID == "" {
			approveCmd.Usage()
			return errHelp
		}
		return cli.setStatus(ctx, *approveID, identity.StatusApproved)
	case "reject":
		if err := rejectCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *rejectID == "" {
			rejectCmd.Usage()
			return errHelp
		}
		return cli.setStatus(ctx, *rejectID, identity.StatusRejected)
	case "courses":
		return cli.courses(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

// renderError maps an error to its user-facing message(s); field validation
// failures are translated per field.
func renderError(err error) string {
	switch origErr := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		lines := make([]string, 0, len(origErr))
		for _, vErr := range origErr {
			lines = append(lines, fmt.Sprintf("%s: %s", vErr.Field(), vErr.Translate(core.Translator)))
		}
		return strings.Join(lines, "\n")
	case *core.ValidationError:
		if origErr.Fields != nil {
			lines := make([]string, 0, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				lines = append(lines, fmt.Sprintf("%s: %s", fErr.Field, fErr.Error))
			}
			return strings.Join(lines, "\n")
		}
		return origErr.Error()
	default:
		return err.Error()
	}
}

func (cli *commandLine) signIn(ctx context.Context, email, pwd string) error {
	if cli.authSvc.Busy() {
		fmt.Fprintln(cli.out, "a sign-in attempt is already in progress")
		return nil
	}

	usr, landing, err := cli.authSvc.SignIn(ctx, identity.Credentials{Email: email, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome back, %s! -> %s\n", usr.FullName(), landing)
	return nil
}

func (cli *commandLine) signUp(ctx context.Context, first, last, email, role, pwd, confirm string) error {
	reg := identity.Registration{
		FirstName:       first,
		LastName:        last,
		Email:           email,
		Password:        pwd,
		ConfirmPassword: confirm,
		Role:            identity.Role(role),
	}
	if err := cli.authSvc.SignUp(ctx, reg); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Registration submitted; an admin must approve the account before sign-in.")
	return nil
}

func (cli *commandLine) logout() error {
	landing, err := cli.authSvc.SignOut()
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Signed out -> %s\n", landing)
	return nil
}

func (cli *commandLine) whoami() error {
	usr, ok := cli.store.Read()
	if !ok {
		fmt.Fprintln(cli.out, "not signed in")
		return nil
	}
	fmt.Fprintf(cli.out, "%s <%s> (%s, %s)\n", usr.FullName(), usr.Email, usr.Role, usr.Status)
	return nil
}

func (cli *commandLine) menu() error {
	for _, entry := range cli.presenter.Menu() {
		fmt.Fprintf(cli.out, "%-20s %s\n", entry.Label, entry.Path)
	}
	return nil
}

func (cli *commandLine) open(path string) error {
	decision := cli.routes.Resolve(cli.store, path)
	if decision.Allowed {
		fmt.Fprintf(cli.out, "ALLOW %s\n", path)
	} else {
		fmt.Fprintf(cli.out, "REDIRECT %s -> %s\n", path, decision.Redirect)
	}
	return nil
}

func (cli *commandLine) listUsers(ctx context.Context, status identity.Status) error {
	var (
		users []identity.Identity
		err   error
	)
	if status == identity.StatusPending {
		users, err = cli.api.PendingUsers(ctx)
	} else {
		users, err = cli.api.ApprovedUsers(ctx)
	}
	if err != nil {
		return err
	}
	for _, usr := range users {
		fmt.Fprintf(cli.out, "%s  %-25s %-10s %s\n", usr.ID, usr.Email, usr.Role, usr.Status)
	}
	return nil
}

func (cli *commandLine) setStatus(ctx context.Context, id string, status identity.Status) error {
	if err := cli.api.SetUserStatus(ctx, id, status); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s -> %s\n", id, status)
	return nil
}

func (cli *commandLine) courses(ctx context.Context) error {
	usr, ok := cli.store.Read()
	if !ok {
		fmt.Fprintln(cli.out, "not signed in")
		return nil
	}

	var err error
	switch usr.Role {
	case identity.RoleFaculty:
		list, cerr := cli.api.FacultyCourses(ctx, usr.ID)
		err = cerr
		for _, crs := range list {
			fmt.Fprintf(cli.out, "%s  %-10s %s\n", crs.ID, crs.CourseCode, crs.Title)
		}
	case identity.RoleStudent:
		list, cerr := cli.api.EnrolledCourses(ctx, usr.ID)
		err = cerr
		for _, crs := range list {
			fmt.Fprintf(cli.out, "%s  %-10s %s (%s)\n", crs.ID, crs.CourseCode, crs.Title, crs.InstructorName)
		}
	default:
		fmt.Fprintln(cli.out, "no course listing for this role")
	}
	return err
}
