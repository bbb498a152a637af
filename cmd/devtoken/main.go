// devtoken emite un JWT firmado con JWT_SECRET para probar la API en local.
//
// Uso: go run ./cmd/devtoken [rol] [user_id]
// rol por defecto "admin"; user_id por defecto un UUID nuevo (queda como actor de las escrituras).
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	httpRouter "github.com/jhoicas/erp-fulfillment/internal/interfaces/http"
	"github.com/jhoicas/erp-fulfillment/pkg/config"
	"github.com/jhoicas/erp-fulfillment/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	role := httpRouter.RoleAdmin
	if len(os.Args) > 1 {
		role = os.Args[1]
	}
	switch role {
	case httpRouter.RoleAdmin, httpRouter.RoleWarehouse, httpRouter.RoleSales:
	default:
		fmt.Fprintf(os.Stderr, "Rol desconocido %q (admin|bodeguero|vendedor)\n", role)
		os.Exit(1)
	}

	userID := uuid.NewString()
	if len(os.Args) > 2 {
		userID = os.Args[2]
	}

	tok, err := jwt.Generate(cfg.JWT.Secret, userID, "", role, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "user_id=%s role=%s expira en %d min\n", userID, role, cfg.JWT.Expiration)
	fmt.Println(tok)
}
