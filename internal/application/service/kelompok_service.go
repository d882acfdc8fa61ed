package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// KelompokService manages the cooperative registry
type KelompokService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateKelompokInput) (*entity.Kelompok, error)
	Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Kelompok, error)
	List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Kelompok, error)
}

type kelompokServiceImpl struct {
	kelompokRepo port.KelompokRepository
	txManager    port.TransactionManager
	logger       Logger
}

// NewKelompokService creates a new KelompokService
func NewKelompokService(kelompokRepo port.KelompokRepository, txManager port.TransactionManager, logger Logger) KelompokService {
	return &kelompokServiceImpl{
		kelompokRepo: kelompokRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Create registers a cooperative and its member roster
func (s *kelompokServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateKelompokInput) (*entity.Kelompok, error) {
	if actor.Role != entity.RoleAdminKabKota {
		return nil, fmt.Errorf("%w: only %s can register a kelompok", workflow.ErrUnauthorized, entity.RoleAdminKabKota)
	}
	if strings.TrimSpace(input.Nama) == "" {
		return nil, workflow.Validationf("nama is required")
	}
	if len(input.Anggota) == 0 {
		return nil, workflow.Validationf("a kelompok needs at least one anggota")
	}

	k := &entity.Kelompok{
		Nama:      strings.TrimSpace(input.Nama),
		Desa:      input.Desa,
		Kecamatan: input.Kecamatan,
		KabKota:   input.KabKota,
		NamaKetua: input.NamaKetua,
	}
	seen := make(map[string]bool, len(input.Anggota))
	for i, a := range input.Anggota {
		if strings.TrimSpace(a.Nama) == "" {
			return nil, workflow.Validationf("anggota %d: nama is required", i+1)
		}
		if a.NIK != "" && seen[a.NIK] {
			return nil, workflow.Validationf("anggota %d: duplicate NIK %s", i+1, a.NIK)
		}
		seen[a.NIK] = true
		k.Anggota = append(k.Anggota, &entity.Anggota{Nama: strings.TrimSpace(a.Nama), NIK: a.NIK, Jabatan: a.Jabatan})
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.kelompokRepo.Create(txCtx, k)
	})
	if err != nil {
		s.logger.Error("Failed to create kelompok", "error", err, "nama", k.Nama)
		return nil, workflow.StorageFailure("create kelompok", err)
	}

	s.logger.Info("Kelompok created", "id", k.ID, "nama", k.Nama, "anggota", len(k.Anggota))
	return k, nil
}

// Get returns a cooperative with its members
func (s *kelompokServiceImpl) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Kelompok, error) {
	k, err := s.kelompokRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get kelompok", "error", err, "id", id)
		return nil, workflow.StorageFailure("get kelompok", err)
	}
	if k == nil {
		return nil, notFound("kelompok", id)
	}
	return k, nil
}

// List returns registered cooperatives
func (s *kelompokServiceImpl) List(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Kelompok, error) {
	limit, offset = pageDefaults(limit, offset)
	list, err := s.kelompokRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list kelompok", "error", err)
		return nil, workflow.StorageFailure("list kelompok", err)
	}
	return list, nil
}
