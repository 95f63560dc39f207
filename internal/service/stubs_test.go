package service_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/strabagdev/control-costos-contrato-app/internal/model"
	"github.com/strabagdev/control-costos-contrato-app/internal/repository"
	"github.com/strabagdev/control-costos-contrato-app/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. They run the model hooks by hand (GORM does it for
// the real ones) and return copies so only Save/Update mutate stored state.

type stubPartidaRepo struct {
	partidas map[uuid.UUID]*model.Partida
}

func newStubPartidaRepo() *stubPartidaRepo {
	return &stubPartidaRepo{partidas: make(map[uuid.UUID]*model.Partida)}
}

func (r *stubPartidaRepo) store(p *model.Partida) {
	cp := *p
	r.partidas[p.ID] = &cp
}

func (r *stubPartidaRepo) Create(_ context.Context, p *model.Partida) error {
	if err := p.BeforeCreate(nil); err != nil {
		return err
	}
	if err := p.BeforeSave(nil); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.store(p)
	return nil
}

func (r *stubPartidaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Partida, error) {
	p, ok := r.partidas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPartidaRepo) ListByContrato(_ context.Context, contratoID uuid.UUID) ([]model.Partida, error) {
	var out []model.Partida
	for _, p := range r.partidas {
		if p.ContratoID == contratoID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out, nil
}

func (r *stubPartidaRepo) Save(_ context.Context, p *model.Partida) error {
	if err := p.BeforeSave(nil); err != nil {
		return err
	}
	r.store(p)
	return nil
}

func (r *stubPartidaRepo) ExisteByContrato(_ context.Context, contratoID uuid.UUID) (bool, error) {
	for _, p := range r.partidas {
		if p.ContratoID == contratoID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPartidaRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Partida, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPartidaRepo) CreateTx(_ *gorm.DB, p *model.Partida) error {
	return r.Create(context.Background(), p)
}

func (r *stubPartidaRepo) ArchivarTx(_ *gorm.DB, id uuid.UUID) error {
	p, ok := r.partidas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Vigente = false
	return nil
}

func (r *stubPartidaRepo) DB() *gorm.DB { return nil }

var _ repository.PartidaRepository = (*stubPartidaRepo)(nil)

type stubNocRepo struct {
	nocs     map[uuid.UUID]*model.Noc
	lineas   map[uuid.UUID]*model.NocLinea
	partidas *stubPartidaRepo // for the origin preload in ListLineas
	seq      int
}

func newStubNocRepo(partidas *stubPartidaRepo) *stubNocRepo {
	return &stubNocRepo{
		nocs:     make(map[uuid.UUID]*model.Noc),
		lineas:   make(map[uuid.UUID]*model.NocLinea),
		partidas: partidas,
	}
}

func (r *stubNocRepo) Create(_ context.Context, n *model.Noc) error {
	if err := n.BeforeCreate(nil); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	r.nocs[n.ID] = &cp
	return nil
}

func (r *stubNocRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Noc, error) {
	n, ok := r.nocs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *stubNocRepo) ListByContrato(_ context.Context, contratoID uuid.UUID) ([]model.Noc, error) {
	var out []model.Noc
	for _, n := range r.nocs {
		if n.ContratoID == contratoID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubNocRepo) Save(_ context.Context, n *model.Noc) error {
	cp := *n
	r.nocs[n.ID] = &cp
	return nil
}

func (r *stubNocRepo) Delete(_ context.Context, id uuid.UUID) error {
	for lid, l := range r.lineas {
		if l.NocID == id {
			delete(r.lineas, lid)
		}
	}
	delete(r.nocs, id)
	return nil
}

func (r *stubNocRepo) ExisteByContrato(_ context.Context, contratoID uuid.UUID) (bool, error) {
	for _, n := range r.nocs {
		if n.ContratoID == contratoID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubNocRepo) MarcarDirtySiAplicada(_ context.Context, nocID uuid.UUID) error {
	if n, ok := r.nocs[nocID]; ok && n.Status == model.NocStatusApplied {
		n.IsDirty = true
	}
	return nil
}

func (r *stubNocRepo) CreateLinea(_ context.Context, l *model.NocLinea) error {
	if err := l.BeforeCreate(nil); err != nil {
		return err
	}
	r.seq++
	l.CreatedAt = time.Unix(int64(r.seq), 0)
	cp := *l
	cp.PartidaOrigen = nil
	r.lineas[l.ID] = &cp
	return nil
}

func (r *stubNocRepo) FindLineaByID(_ context.Context, nocID, lineaID uuid.UUID) (*model.NocLinea, error) {
	l, ok := r.lineas[lineaID]
	if !ok || l.NocID != nocID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubNocRepo) SaveLinea(_ context.Context, l *model.NocLinea) error {
	cp := *l
	cp.PartidaOrigen = nil
	r.lineas[l.ID] = &cp
	return nil
}

func (r *stubNocRepo) DeleteLinea(_ context.Context, lineaID uuid.UUID) error {
	delete(r.lineas, lineaID)
	return nil
}

func (r *stubNocRepo) lineasDe(nocID uuid.UUID) []model.NocLinea {
	var out []model.NocLinea
	for _, l := range r.lineas {
		if l.NocID == nocID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *stubNocRepo) ListLineas(_ context.Context, nocID uuid.UUID) ([]model.NocLinea, error) {
	out := r.lineasDe(nocID)
	for i := range out {
		if p, ok := r.partidas.partidas[out[i].PartidaOrigenID]; ok {
			cp := *p
			out[i].PartidaOrigen = &cp
		}
	}
	return out, nil
}

func (r *stubNocRepo) CountLineasAplicadas(_ context.Context, nocID uuid.UUID) (int64, error) {
	var count int64
	for _, l := range r.lineas {
		if l.NocID == nocID && l.PartidaResultanteID != nil {
			count++
		}
	}
	return count, nil
}

func (r *stubNocRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Noc, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubNocRepo) ListLineasForUpdateTx(_ *gorm.DB, nocID uuid.UUID) ([]model.NocLinea, error) {
	return r.lineasDe(nocID), nil
}

func (r *stubNocRepo) SetResultanteTx(_ *gorm.DB, lineaID, partidaID uuid.UUID) error {
	l, ok := r.lineas[lineaID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	id := partidaID
	l.PartidaResultanteID = &id
	return nil
}

func (r *stubNocRepo) MarcarAplicadaTx(_ *gorm.DB, nocID, usuarioID uuid.UUID) error {
	n, ok := r.nocs[nocID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	n.Status = model.NocStatusApplied
	n.IsDirty = false
	n.AppliedAt = &now
	uid := usuarioID
	n.AppliedBy = &uid
	return nil
}

func (r *stubNocRepo) DB() *gorm.DB { return nil }

var _ repository.NocRepository = (*stubNocRepo)(nil)

type stubContratoRepo struct {
	contratos map[uuid.UUID]*model.Contrato
}

func newStubContratoRepo() *stubContratoRepo {
	return &stubContratoRepo{contratos: make(map[uuid.UUID]*model.Contrato)}
}

func (r *stubContratoRepo) Create(_ context.Context, c *model.Contrato) error {
	if err := c.BeforeCreate(nil); err != nil {
		return err
	}
	cp := *c
	r.contratos[c.ID] = &cp
	return nil
}

func (r *stubContratoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Contrato, error) {
	c, ok := r.contratos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubContratoRepo) ListWithCounts(_ context.Context) ([]repository.ContratoConteos, error) {
	var out []repository.ContratoConteos
	for _, c := range r.contratos {
		out = append(out, repository.ContratoConteos{Contrato: *c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contrato.Nombre < out[j].Contrato.Nombre })
	return out, nil
}

func (r *stubContratoRepo) Save(_ context.Context, c *model.Contrato) error {
	cp := *c
	r.contratos[c.ID] = &cp
	return nil
}

func (r *stubContratoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.contratos, id)
	return nil
}

func (r *stubContratoRepo) Resumen(_ context.Context, _ uuid.UUID) (*repository.ResumenContrato, error) {
	return &repository.ResumenContrato{}, nil
}

func (r *stubContratoRepo) DB() *gorm.DB { return nil }

var _ repository.ContratoRepository = (*stubContratoRepo)(nil)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	for _, existing := range r.usuarios {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) ListAll(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = activo
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

type grantKey struct{ usuario, contrato uuid.UUID }

type stubGrantsRepo struct {
	grants    map[grantKey]bool
	contratos *stubContratoRepo
}

func newStubGrantsRepo(contratos *stubContratoRepo) *stubGrantsRepo {
	return &stubGrantsRepo{grants: make(map[grantKey]bool), contratos: contratos}
}

func (r *stubGrantsRepo) Grant(_ context.Context, usuarioID, contratoID uuid.UUID) error {
	r.grants[grantKey{usuarioID, contratoID}] = true
	return nil
}

func (r *stubGrantsRepo) Revoke(_ context.Context, usuarioID, contratoID uuid.UUID) error {
	delete(r.grants, grantKey{usuarioID, contratoID})
	return nil
}

func (r *stubGrantsRepo) HasAccess(_ context.Context, usuarioID, contratoID uuid.UUID) (bool, error) {
	return r.grants[grantKey{usuarioID, contratoID}], nil
}

func (r *stubGrantsRepo) ListUsuariosByContrato(_ context.Context, contratoID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for k := range r.grants {
		if k.contrato == contratoID {
			out = append(out, k.usuario)
		}
	}
	return out, nil
}

func (r *stubGrantsRepo) ListContratosByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Contrato, error) {
	var out []model.Contrato
	for k := range r.grants {
		if k.usuario == usuarioID {
			if c, ok := r.contratos.contratos[k.contrato]; ok {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

func (r *stubGrantsRepo) ExisteByContrato(_ context.Context, contratoID uuid.UUID) (bool, error) {
	for k := range r.grants {
		if k.contrato == contratoID {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.UserContractRepository = (*stubGrantsRepo)(nil)

// ── Test environment ─────────────────────────────────────────────────────────

type entorno struct {
	partidaRepo  *stubPartidaRepo
	nocRepo      *stubNocRepo
	contratoRepo *stubContratoRepo
	usuarioRepo  *stubUsuarioRepo
	grantsRepo   *stubGrantsRepo

	acceso   service.AccesoService
	partidas service.PartidaService
	nocs     service.NocService
}

func buildEntorno() *entorno {
	partidaRepo := newStubPartidaRepo()
	contratoRepo := newStubContratoRepo()
	usuarioRepo := newStubUsuarioRepo()
	grantsRepo := newStubGrantsRepo(contratoRepo)
	nocRepo := newStubNocRepo(partidaRepo)

	acceso := service.NewAccesoService(grantsRepo, contratoRepo, usuarioRepo)
	return &entorno{
		partidaRepo:  partidaRepo,
		nocRepo:      nocRepo,
		contratoRepo: contratoRepo,
		usuarioRepo:  usuarioRepo,
		grantsRepo:   grantsRepo,
		acceso:       acceso,
		partidas:     service.NewPartidaService(partidaRepo, acceso),
		nocs:         service.NewNocService(nocRepo, partidaRepo, acceso, nil),
	}
}

func (e *entorno) seedContrato(nombre string) uuid.UUID {
	c := &model.Contrato{Nombre: nombre}
	_ = e.contratoRepo.Create(context.Background(), c)
	return c.ID
}

func (e *entorno) seedPartida(contratoID uuid.UUID, item string, cantidad, precio float64) *model.Partida {
	p := &model.Partida{
		ContratoID:     contratoID,
		Item:           item,
		Cantidad:       decimal.NewFromFloat(cantidad),
		PrecioUnitario: decimal.NewFromFloat(precio),
		Vigente:        true,
	}
	_ = e.partidaRepo.Create(context.Background(), p)
	return p
}

func (e *entorno) seedNoc(contratoID uuid.UUID, numero string) *model.Noc {
	n := &model.Noc{ContratoID: contratoID, Numero: numero, Status: model.NocStatusDraft}
	_ = e.nocRepo.Create(context.Background(), n)
	return n
}

func (e *entorno) seedLinea(nocID, origenID uuid.UUID, cantidad, precio *decimal.Decimal) *model.NocLinea {
	l := &model.NocLinea{
		NocID:               nocID,
		PartidaOrigenID:     origenID,
		NuevaCantidad:       cantidad,
		NuevoPrecioUnitario: precio,
	}
	_ = e.nocRepo.CreateLinea(context.Background(), l)
	return l
}

func adminActor() service.Actor {
	return service.Actor{UsuarioID: uuid.New(), Rol: model.RolAdmin}
}

func editorActor() service.Actor {
	return service.Actor{UsuarioID: uuid.New(), Rol: model.RolEditor}
}

func viewerActor() service.Actor {
	return service.Actor{UsuarioID: uuid.New(), Rol: model.RolViewer}
}

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func decimalFrom(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("uuid invalido %q: %v", s, err)
	}
	return id
}
