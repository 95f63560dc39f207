package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/strabagdev/control-costos-contrato-app/internal/apierror"
	"github.com/strabagdev/control-costos-contrato-app/internal/middleware"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// actorFrom builds the service-layer identity from the JWT claims set by the
// auth middleware.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return service.Actor{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
		return service.Actor{}, false
	}
	return service.Actor{UsuarioID: id, Rol: claims.Rol}, true
}

// parseIDParam parses a UUID path parameter, writing the 400 response itself
// on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDBody parses a UUID taken from a request body field.
func parseUUIDBody(c *gin.Context, raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return uuid.Nil, err
	}
	return id, nil
}

// parseContratoQuery parses the mandatory contrato_id query parameter.
func parseContratoQuery(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("contrato_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, apierror.New("contrato_id es requerido"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("contrato_id invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unknown errors collapse into a generic 500 so internals never leak.
func writeServiceError(c *gin.Context, err error) {
	var bloqueados *service.CamposBloqueadosError
	switch {
	case errors.Is(err, service.ErrAccesoDenegado):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrTieneDependencias):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrEntradaInvalida),
		errors.Is(err, service.ErrContratoDistinto),
		errors.Is(err, service.ErrNoVigente),
		errors.Is(err, service.ErrYaAplicada),
		errors.Is(err, service.ErrSinLineas):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &bloqueados):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		// Registered on the context; the ErrorHandler middleware logs it and
		// writes the generic 500 envelope.
		_ = c.Error(err)
		c.Abort()
	}
}
