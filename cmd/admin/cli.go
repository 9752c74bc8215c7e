package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/noah-isme/school-admin-api/internal/models"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

const minPasswordLength = 8

type userCreator interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type migrator func(command string, args ...string) error

type commandLine struct {
	users   userCreator
	migrate migrator
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                               - run goose (up, down, status, redo, version, ...)")
	fmt.Fprintln(cli.out, "  createadmin -email EMAIL -first FIRST -last LAST    - create an ADMIN account, password prompted")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2], args[3:]...)
	case "createadmin":
		cmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		email := cmd.String("email", "", "Login email of the new administrator.")
		first := cmd.String("first", "Admin", "First name.")
		last := cmd.String("last", "Ecole", "Last name.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*email) == "" {
			cmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		return cli.createAdmin(ctx, *email, *first, *last, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) createAdmin(ctx context.Context, email, first, last, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must contain at least %d characters", minPasswordLength)
	}
	_, err := cli.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("a user with email %s already exists", email)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := cli.users.Create(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "admin %s created (%s)\n", user.Email, user.ID)
	return nil
}
