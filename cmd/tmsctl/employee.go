package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solutions-liquify/tms/internal/masterdata/employees"
	"github.com/solutions-liquify/tms/internal/platform/db"
	"github.com/solutions-liquify/tms/internal/platform/validation"
	"github.com/solutions-liquify/tms/internal/shared"
)

const bootstrapPasswordEnv = "TMS_BOOTSTRAP_PASSWORD"

func newEmployeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Employee administration",
	}

	var name, email string
	bootstrap := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first administrator when none is active",
		Long: "Creates an ADMIN employee unless an active administrator already exists. " +
			"The password is read from " + bootstrapPasswordEnv + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := bootstrapEmployee(name, email, os.Getenv(bootstrapPasswordEnv))
			if err != nil {
				return err
			}

			cfg, err := loadCtlConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := employees.NewService(employees.NewRepository(pool), cfg.logger())
			created, err := svc.Bootstrap(cmd.Context(), e)
			if err != nil {
				return err
			}
			if created == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "an active administrator already exists, nothing to do")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created administrator %s (%s)\n", created.Email, created.ID)
			return nil
		},
	}
	bootstrap.Flags().StringVar(&name, "name", "Administrator", "display name")
	bootstrap.Flags().StringVar(&email, "email", "", "login email")
	_ = bootstrap.MarkFlagRequired("email")

	cmd.AddCommand(bootstrap)
	return cmd
}

// bootstrapEmployee builds and validates the administrator record.
func bootstrapEmployee(name, email, password string) (employees.Employee, error) {
	if password == "" {
		return employees.Employee{}, errors.New(bootstrapPasswordEnv + " must be set")
	}
	e := employees.Employee{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Role:     shared.RoleAdmin,
		Password: password,
	}
	if err := validation.New().Struct(e); err != nil {
		return employees.Employee{}, fmt.Errorf("invalid administrator: %w", err)
	}
	return e, nil
}
