package main

import (
	"context"
	"fmt"

	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
	"github.com/dropDatabas3/userpanel/internal/tracker"
	"github.com/spf13/cobra"
)

// recordNav guarda el destino de la navegación para imprimirlo al final.
func recordNav(dst *string) tracker.Option {
	return tracker.WithNavigator(tracker.NavigatorFunc(func(path string, _ bool) { *dst = path }))
}

func newCreateCmd(c *cli) *cobra.Command {
	var req dto.CreateUserRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crear un usuario (acción de la página de lista)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.FirstName == "" || req.EmailAddress == "" || req.Username == "" {
				return fmt.Errorf("--first-name, --email y --username son obligatorios")
			}
			var nav string
			t := tracker.NewListTracker(c.transport(), tracker.WithLogger(c.logger()), recordNav(&nav))
			refreshed := false
			t.SetSuccessCallback(func() { refreshed = true })
			if err := c.run(cmd.Context(), t.Tracker, func(ctx context.Context) (bool, error) {
				return t.CreateUser(ctx, req)
			}, &nav); err != nil {
				return err
			}
			if refreshed && c.OutFormat == "text" {
				fmt.Fprintln(c.out, "list refresh requested")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.FirstName, "first-name", "", "Nombre")
	f.StringVar(&req.LastName, "last-name", "", "Apellido")
	f.StringVar(&req.DisplayName, "display-name", "", "Nombre visible")
	f.StringVar(&req.EmailAddress, "email", "", "Email")
	f.StringVar(&req.Username, "username", "", "Username")
	f.StringVar(&req.JobTitle, "job-title", "", "Puesto")
	f.StringVar(&req.DateOfBirth, "date-of-birth", "", "Fecha de nacimiento (YYYY-MM-DD)")
	return cmd
}

func newUpdateCmd(c *cli) *cobra.Command {
	var vals struct {
		firstName, lastName, displayName, email, username, jobTitle, dob, gender string
	}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Actualizar un usuario (solo se envían los flags indicados)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.UpdateUserRequest
			set := func(flag string, v string, dst **string) {
				if cmd.Flags().Changed(flag) {
					s := v
					*dst = &s
				}
			}
			set("first-name", vals.firstName, &req.FirstName)
			set("last-name", vals.lastName, &req.LastName)
			set("display-name", vals.displayName, &req.DisplayName)
			set("email", vals.email, &req.EmailAddress)
			set("username", vals.username, &req.Username)
			set("job-title", vals.jobTitle, &req.JobTitle)
			set("date-of-birth", vals.dob, &req.DateOfBirth)
			set("gender", vals.gender, &req.Gender)

			var nav string
			t := tracker.NewDetailTracker(args[0], c.transport(), tracker.WithLogger(c.logger()), recordNav(&nav))
			return c.run(cmd.Context(), t.Tracker, func(ctx context.Context) (bool, error) {
				return t.UpdateUser(ctx, req)
			}, &nav)
		},
	}
	f := cmd.Flags()
	f.StringVar(&vals.firstName, "first-name", "", "Nombre")
	f.StringVar(&vals.lastName, "last-name", "", "Apellido")
	f.StringVar(&vals.displayName, "display-name", "", "Nombre visible")
	f.StringVar(&vals.email, "email", "", "Email")
	f.StringVar(&vals.username, "username", "", "Username")
	f.StringVar(&vals.jobTitle, "job-title", "", "Puesto")
	f.StringVar(&vals.dob, "date-of-birth", "", "Fecha de nacimiento (YYYY-MM-DD)")
	f.StringVar(&vals.gender, "gender", "", "Id de género")
	return cmd
}

func newDeactivateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Desactivar un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nav string
			t := tracker.NewDetailTracker(args[0], c.transport(), tracker.WithLogger(c.logger()), recordNav(&nav))
			return c.run(cmd.Context(), t.Tracker, t.DeactivateUser, &nav)
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	var fromList bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Eliminar un usuario (desde el detalle o, con --from-list, desde la lista)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nav string
			if fromList {
				t := tracker.NewListTracker(c.transport(), tracker.WithLogger(c.logger()), recordNav(&nav))
				return c.run(cmd.Context(), t.Tracker, func(ctx context.Context) (bool, error) {
					return t.DeleteUser(ctx, args[0])
				}, &nav)
			}
			t := tracker.NewDetailTracker(args[0], c.transport(), tracker.WithLogger(c.logger()), recordNav(&nav))
			return c.run(cmd.Context(), t.Tracker, t.DeleteUser, &nav)
		},
	}
	cmd.Flags().BoolVar(&fromList, "from-list", false, "Usar la acción de la página de lista")
	return cmd
}
