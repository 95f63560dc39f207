package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinel error kinds. Services wrap them with context via fmt.Errorf("%w: ...")
// and handlers map them to HTTP status codes with errors.Is.
var (
	// ErrAccesoDenegado: the caller lacks the role or the contrato grant.
	ErrAccesoDenegado = errors.New("acceso denegado")
	// ErrNoEncontrado: the referenced NOC, linea or partida does not exist.
	ErrNoEncontrado = errors.New("no encontrado")
	// ErrEntradaInvalida: missing required field or malformed value.
	ErrEntradaInvalida = errors.New("entrada invalida")
	// ErrContratoDistinto: the partida belongs to a different contrato than the NOC.
	ErrContratoDistinto = errors.New("la partida pertenece a otro contrato")
	// ErrNoVigente: the origin partida was superseded by another applied NOC.
	ErrNoVigente = errors.New("la partida no es la version vigente")
	// ErrYaAplicada: mutation or re-apply attempted on an already-resolved NOC o linea.
	ErrYaAplicada = errors.New("ya fue aplicada")
	// ErrSinLineas: apply attempted on a NOC with zero lineas.
	ErrSinLineas = errors.New("la NOC no tiene lineas")
	// ErrTieneDependencias: contrato deletion blocked by partidas, NOCs or grants.
	ErrTieneDependencias = errors.New("el contrato tiene dependencias")
)

// traducirErrorBD maps constraint violations surfaced by the driver into the
// service taxonomy. Relies on TranslateError being enabled on the gorm config.
func traducirErrorBD(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: valor duplicado", ErrEntradaInvalida)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: referencia inexistente", ErrEntradaInvalida)
	}
	return err
}

// CamposBloqueadosError rejects an edit that touches locked fields of a
// partida already versioned by a NOC. The whole request is rejected; no
// partial application.
type CamposBloqueadosError struct {
	Campos []string
}

func (e *CamposBloqueadosError) Error() string {
	return fmt.Sprintf("campos bloqueados por versionado: %s", strings.Join(e.Campos, ", "))
}
