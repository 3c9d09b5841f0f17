package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vetclinic/internal/auth"
	"vetclinic/internal/config"
	"vetclinic/internal/crypto"
	"vetclinic/internal/logging"
	"vetclinic/internal/mail"
	"vetclinic/internal/model"
	"vetclinic/internal/repository"
)

// Response messages, preserved from the public surface of the service.
const (
	msgFillAllFields             = "Lo sentimos, debes llenar todos los campos"
	msgMustVerifyAccount         = "Lo sentimos, debe verificar su cuenta"
	msgUserNotRegistered         = "Lo sentimos, el usuario no se encuentra registrado"
	msgWrongPassword             = "Lo sentimos, el password no es el correcto"
	msgCheckConfirmationMail     = "Revisa tu correo electrónico para confirmar tu cuenta"
	msgEmailAlreadyRegistered    = "Lo sentimos, el email ya se encuentra registrado"
	msgCannotValidateAccount     = "Lo sentimos, no se puede validar la cuenta"
	msgAccountAlreadyConfirmed   = "La cuenta ya ha sido confirmada"
	msgTokenConfirmedLogin       = "Token confirmado, ya puedes iniciar sesión"
	msgCheckRecoveryMail         = "Revisa tu correo electrónico para reestablecer tu cuenta"
	msgTokenConfirmedNewPassword = "Token confirmado, ya puedes crear tu nuevo password"
	msgPasswordsDoNotMatch       = "Lo sentimos, los passwords no coinciden"
	msgNewPasswordSet            = "Felicitaciones, ya puedes iniciar sesión con tu nuevo password"
	msgWrongCurrentPassword      = "Lo sentimos, el password actual no es el correcto"
	msgPasswordUpdated           = "Password actualizado correctamente"
	msgProfileUpdated            = "Perfil actualizado correctamente"
	msgInvalidID                 = "Lo sentimos, debe ser un id válido"
	msgServerError               = "Error interno del servidor"
	msgTokenRequired             = "Lo sentimos, primero debes proporcionar un token"
	msgTokenInvalid              = "Lo sentimos, el token no es válido o ha expirado"
	msgPatientRegistered         = "Registro exitoso del paciente"
	msgPatientUpdated            = "Actualización exitosa del paciente"
	msgVeterinarianMissing       = "El veterinario no existe"
)

var loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vetclinic_login_attempts_total",
	Help: "Login attempts by outcome.",
}, []string{"outcome"})

type Server struct {
	cfg    config.Config
	store  repository.Store
	mailer mail.Mailer
	log    logging.Logger
}

func NewServer(cfg config.Config, store repository.Store, mailer mail.Mailer, log logging.Logger) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		mailer: mailer,
		log:    log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", s.handleLogin)
	r.Post("/registro", s.handleRegister)
	r.Get("/confirmar/{token}", s.handleConfirmEmail)
	r.Get("/veterinarios", s.handleListVeterinarians)
	r.Post("/recuperar-password", s.handleRecoverPassword)
	r.Get("/recuperar-password/{token}", s.handleVerifyRecoveryToken)
	r.Post("/nuevo-password/{token}", s.handleNewPassword)

	r.With(s.authMiddleware).Get("/perfil", s.handleProfile)
	r.With(s.authMiddleware).Put("/veterinario/actualizarpassword", s.handleChangePassword)
	r.With(s.authMiddleware).Get("/veterinario/{id}", s.handleVeterinarianDetail)
	r.With(s.authMiddleware).Put("/veterinario/{id}", s.handleUpdateProfile)

	r.With(s.authMiddleware).Get("/pacientes", s.handleListPatients)
	r.With(s.authMiddleware).Get("/paciente/{id}", s.handlePatientDetail)
	r.With(s.authMiddleware).Post("/paciente/registro", s.handleCreatePatient)
	r.With(s.authMiddleware).Put("/paciente/actualizar/{id}", s.handleUpdatePatient)
	r.With(s.authMiddleware).Delete("/paciente/eliminar/{id}", s.handleDeletePatient)

	return r
}

// veterinarianProfile is the allow-listed projection of an account: no hash,
// no one-time token, no confirmation flag, no timestamps.
type veterinarianProfile struct {
	ID      string `json:"_id"`
	Name    string `json:"nombre"`
	Surname string `json:"apellido"`
	Address string `json:"direccion"`
	Phone   string `json:"telefono"`
	Email   string `json:"email"`
}

func projectVeterinarian(vet model.Veterinarian) veterinarianProfile {
	return veterinarianProfile{
		ID:      vet.ID,
		Name:    vet.Name,
		Surname: vet.Surname,
		Address: vet.Address,
		Phone:   vet.Phone,
		Email:   vet.Email,
	}
}

type patientOwner struct {
	ID      string `json:"_id"`
	Name    string `json:"nombre"`
	Surname string `json:"apellido"`
}

type patientSummary struct {
	ID           string       `json:"_id"`
	Name         string       `json:"nombre"`
	Owner        string       `json:"propietario"`
	Email        string       `json:"email"`
	Cell         string       `json:"celular"`
	Landline     string       `json:"convencional"`
	AdmittedAt   time.Time    `json:"ingreso"`
	DischargedAt *time.Time   `json:"salida,omitempty"`
	Symptoms     string       `json:"sintomas"`
	Veterinarian patientOwner `json:"veterinario"`
}

func projectPatient(patient model.Patient, vet model.Veterinarian) patientSummary {
	return patientSummary{
		ID:           patient.ID,
		Name:         patient.Name,
		Owner:        patient.Owner,
		Email:        patient.Email,
		Cell:         patient.Cell,
		Landline:     patient.Landline,
		AdmittedAt:   patient.AdmittedAt,
		DischargedAt: patient.DischargedAt,
		Symptoms:     patient.Symptoms,
		Veterinarian: patientOwner{ID: vet.ID, Name: vet.Name, Surname: vet.Surname},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	veterinarianProfile
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		loginAttempts.WithLabelValues("invalid_request").Inc()
		writeMsg(w, http.StatusNotFound, msgFillAllFields)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		loginAttempts.WithLabelValues("invalid_request").Inc()
		writeMsg(w, http.StatusNotFound, msgFillAllFields)
		return
	}

	vet, err := s.store.GetVeterinarianByEmail(r.Context(), req.Email)
	// The confirmation state of a found account is reported before a
	// generic not-found: this precedence is externally observable.
	if err == nil && !vet.Confirmed {
		loginAttempts.WithLabelValues("unconfirmed").Inc()
		writeMsg(w, http.StatusForbidden, msgMustVerifyAccount)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		loginAttempts.WithLabelValues("not_found").Inc()
		writeMsg(w, http.StatusNotFound, msgUserNotRegistered)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "login lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	if err := crypto.CheckPassword(vet.PasswordHash, req.Password); err != nil {
		loginAttempts.WithLabelValues("bad_password").Inc()
		writeMsg(w, http.StatusNotFound, msgWrongPassword)
		return
	}

	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.SessionTokenTTL, vet.ID)
	if err != nil {
		s.log.Error(r.Context(), "session token issue failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	loginAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{
		Token:               token,
		veterinarianProfile: projectVeterinarian(vet),
	})
}

type registerRequest struct {
	Name     string `json:"nombre"`
	Surname  string `json:"apellido"`
	Address  string `json:"direccion"`
	Phone    string `json:"telefono"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Surname == "" || req.Email == "" || req.Password == "" {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}

	exists, err := s.store.VeterinarianEmailExists(r.Context(), req.Email)
	if err != nil {
		s.log.Error(r.Context(), "email existence check failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	if exists {
		writeMsg(w, http.StatusBadRequest, msgEmailAlreadyRegistered)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.log.Error(r.Context(), "password hash failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	token, err := crypto.NewOneTimeToken()
	if err != nil {
		s.log.Error(r.Context(), "confirmation token issue failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	// Mail first, persist second: an account is only created once its
	// confirmation link is on the way.
	if err := s.mailer.SendConfirmation(r.Context(), req.Email, token); err != nil {
		s.log.Error(r.Context(), "confirmation mail failed", "error", err, "email", req.Email)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	now := time.Now().UTC()
	vet := model.Veterinarian{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Surname:      req.Surname,
		Address:      req.Address,
		Phone:        req.Phone,
		Confirmed:    false,
		Token:        &token,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateVeterinarian(r.Context(), vet); err != nil {
		s.log.Error(r.Context(), "veterinarian create failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.log.Info(r.Context(), "veterinarian registered", "id", vet.ID)
	writeMsg(w, http.StatusOK, msgCheckConfirmationMail)
}

func (s *Server) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeMsg(w, http.StatusBadRequest, msgCannotValidateAccount)
		return
	}

	// An unknown token and an already-consumed (NULL) token are
	// indistinguishable here; both report the account as confirmed.
	vet, err := s.store.GetVeterinarianByToken(r.Context(), token)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, msgAccountAlreadyConfirmed)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "confirmation lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	if err := s.store.ConfirmVeterinarian(r.Context(), vet.ID); err != nil {
		s.log.Error(r.Context(), "confirmation update failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgTokenConfirmedLogin)
}

type recoveryRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusNotFound, msgFillAllFields)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeMsg(w, http.StatusNotFound, msgFillAllFields)
		return
	}

	vet, err := s.store.GetVeterinarianByEmail(r.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, msgUserNotRegistered)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "recovery lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	token, err := crypto.NewOneTimeToken()
	if err != nil {
		s.log.Error(r.Context(), "recovery token issue failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	if err := s.mailer.SendRecovery(r.Context(), vet.Email, token); err != nil {
		s.log.Error(r.Context(), "recovery mail failed", "error", err, "email", vet.Email)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	// Overwrites any outstanding token: only the newest one verifies.
	if err := s.store.SetVeterinarianToken(r.Context(), vet.ID, token); err != nil {
		s.log.Error(r.Context(), "recovery token store failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgCheckRecoveryMail)
}

func (s *Server) handleVerifyRecoveryToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeMsg(w, http.StatusNotFound, msgCannotValidateAccount)
		return
	}

	vet, err := s.store.GetVeterinarianByToken(r.Context(), token)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, msgCannotValidateAccount)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "recovery token lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	// No state change beyond re-persisting the record.
	if err := s.store.TouchVeterinarian(r.Context(), vet.ID); err != nil {
		s.log.Error(r.Context(), "recovery token touch failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgTokenConfirmedNewPassword)
}

type newPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmpassword"`
}

func (s *Server) handleNewPassword(w http.ResponseWriter, r *http.Request) {
	var req newPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusNotFound, msgFillAllFields)
		return
	}
	if req.Password == "" || req.ConfirmPassword == "" {
		writeMsg(w, http.StatusNotFound, msgFillAllFields)
		return
	}
	if req.Password != req.ConfirmPassword {
		writeMsg(w, http.StatusNotFound, msgPasswordsDoNotMatch)
		return
	}

	token := chi.URLParam(r, "token")
	vet, err := s.store.GetVeterinarianByToken(r.Context(), token)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, msgCannotValidateAccount)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "new password token lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.log.Error(r.Context(), "password hash failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	if err := s.store.ClearTokenAndSetPassword(r.Context(), vet.ID, hash); err != nil {
		s.log.Error(r.Context(), "new password store failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgNewPasswordSet)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	vet := accountFromContext(r.Context())
	if vet == nil {
		writeMsg(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}
	writeJSON(w, http.StatusOK, projectVeterinarian(*vet))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"passwordactual"`
	NewPassword     string `json:"passwordnuevo"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	account := accountFromContext(r.Context())
	if account == nil {
		writeMsg(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}

	// Refetch: the account may have vanished between auth and this call.
	vet, err := s.store.GetVeterinarianByID(r.Context(), account.ID)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, msgUserNotRegistered)
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "change password lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	if err := crypto.CheckPassword(vet.PasswordHash, req.CurrentPassword); err != nil {
		writeMsg(w, http.StatusNotFound, msgWrongCurrentPassword)
		return
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		s.log.Error(r.Context(), "password hash failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	if err := s.store.UpdateVeterinarianPassword(r.Context(), vet.ID, hash); err != nil {
		s.log.Error(r.Context(), "password update failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgPasswordUpdated)
}

func (s *Server) handleVeterinarianDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMsg(w, http.StatusNotFound, msgInvalidID)
		return
	}

	vet, err := s.store.GetVeterinarianByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Lo sentimos, no existe el veterinario %s", id))
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "veterinarian detail lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]veterinarianProfile{"msg": projectVeterinarian(vet)})
}

type updateProfileRequest struct {
	Name    string `json:"nombre"`
	Surname string `json:"apellido"`
	Address string `json:"direccion"`
	Phone   string `json:"telefono"`
	Email   string `json:"email"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMsg(w, http.StatusNotFound, msgInvalidID)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Surname == "" || req.Address == "" || req.Phone == "" || req.Email == "" {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}

	vet, err := s.store.GetVeterinarianByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Lo sentimos, no existe el veterinario %s", id))
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "profile update lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	if vet.Email != req.Email {
		taken, err := s.store.VeterinarianEmailExists(r.Context(), req.Email)
		if err != nil {
			s.log.Error(r.Context(), "email existence check failed", "error", err)
			writeMsg(w, http.StatusInternalServerError, msgServerError)
			return
		}
		if taken {
			writeMsg(w, http.StatusNotFound, msgEmailAlreadyRegistered)
			return
		}
	}

	update := repository.ProfileUpdate{
		Name:    req.Name,
		Surname: req.Surname,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if err := s.store.UpdateVeterinarianProfile(r.Context(), id, update); err != nil {
		s.log.Error(r.Context(), "profile update failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgProfileUpdated)
}

func (s *Server) handleListVeterinarians(w http.ResponseWriter, r *http.Request) {
	vets, err := s.store.ListVeterinarians(r.Context())
	if err != nil {
		s.log.Error(r.Context(), "veterinarian list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al listar veterinarios"})
		return
	}

	profiles := make([]veterinarianProfile, 0, len(vets))
	for _, vet := range vets {
		profiles = append(profiles, projectVeterinarian(vet))
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	account := accountFromContext(r.Context())
	if account == nil {
		writeMsg(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}

	patients, err := s.store.ListPatientsByVeterinarian(r.Context(), account.ID)
	if err != nil {
		s.log.Error(r.Context(), "patient list failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	summaries := make([]patientSummary, 0, len(patients))
	for _, patient := range patients {
		summaries = append(summaries, projectPatient(patient, *account))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handlePatientDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMsg(w, http.StatusNotFound, msgInvalidID)
		return
	}

	patient, err := s.store.GetPatientByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Lo sentimos, no existe el paciente con ID %s", id))
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "patient detail lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	vet, err := s.store.GetVeterinarianByID(r.Context(), patient.VeterinarianID)
	if err != nil {
		s.log.Error(r.Context(), "patient owner lookup failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, projectPatient(patient, vet))
}

type patientRequest struct {
	Name         string     `json:"nombre"`
	Owner        string     `json:"propietario"`
	Email        string     `json:"email"`
	Cell         string     `json:"celular"`
	Landline     string     `json:"convencional"`
	AdmittedAt   *time.Time `json:"ingreso,omitempty"`
	DischargedAt *time.Time `json:"salida,omitempty"`
	Symptoms     string     `json:"sintomas"`
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	account := accountFromContext(r.Context())
	if account == nil {
		writeMsg(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}

	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}
	if req.Name == "" || req.Owner == "" || req.Symptoms == "" {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}

	// The owning account is re-checked in the store before the insert.
	if _, err := s.store.GetVeterinarianByID(r.Context(), account.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMsg(w, http.StatusBadRequest, msgVeterinarianMissing)
			return
		}
		s.log.Error(r.Context(), "patient owner check failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}

	now := time.Now().UTC()
	admitted := now
	if req.AdmittedAt != nil {
		admitted = req.AdmittedAt.UTC()
	}
	patient := model.Patient{
		ID:             uuid.NewString(),
		VeterinarianID: account.ID,
		Name:           req.Name,
		Owner:          req.Owner,
		Email:          req.Email,
		Cell:           req.Cell,
		Landline:       req.Landline,
		Symptoms:       req.Symptoms,
		AdmittedAt:     admitted,
		DischargedAt:   req.DischargedAt,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreatePatient(r.Context(), patient); err != nil {
		s.log.Error(r.Context(), "patient create failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgPatientRegistered)
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}
	if req.Name == "" || req.Owner == "" || req.Symptoms == "" {
		writeMsg(w, http.StatusBadRequest, msgFillAllFields)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMsg(w, http.StatusNotFound, msgInvalidID)
		return
	}

	update := repository.PatientUpdate{
		Name:         req.Name,
		Owner:        req.Owner,
		Email:        req.Email,
		Cell:         req.Cell,
		Landline:     req.Landline,
		Symptoms:     req.Symptoms,
		DischargedAt: req.DischargedAt,
	}
	if err := s.store.UpdatePatient(r.Context(), id, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeMsg(w, http.StatusNotFound, fmt.Sprintf("Lo sentimos, no existe el paciente con ID %s", id))
			return
		}
		s.log.Error(r.Context(), "patient update failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeMsg(w, http.StatusOK, msgPatientUpdated)
}

func (s *Server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Lo sentimos, no existe el paciente con ID %s", id))
		return
	}

	// The only handler that converts unexpected store errors to a generic
	// message; the rest surface them as the shared server-error response.
	deleted, err := s.store.DeletePatient(r.Context(), id)
	if err != nil {
		s.log.Error(r.Context(), "patient delete failed", "error", err)
		writeMsg(w, http.StatusInternalServerError, msgServerError)
		return
	}
	if !deleted {
		writeMsg(w, http.StatusNotFound, fmt.Sprintf("Lo sentimos, no existe el paciente con ID %s", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authMiddleware performs exactly one token verification and one store
// lookup per protected request; nothing is cached across requests.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeMsg(w, http.StatusUnauthorized, msgTokenRequired)
			return
		}

		accountID, err := auth.ParseSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, msgTokenInvalid)
			return
		}

		vet, err := s.store.GetVeterinarianByID(r.Context(), accountID)
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, msgTokenInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, &vet)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type accountKey struct{}

func accountFromContext(ctx context.Context) *model.Veterinarian {
	value := ctx.Value(accountKey{})
	vet, _ := value.(*model.Veterinarian)
	return vet
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
