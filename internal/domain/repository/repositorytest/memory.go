// Package repositorytest implementaciones en memoria de los repositorios para tests.
// Reproducen las restricciones del esquema (email y sku únicos, FK de categoría).
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/stock-control-api/internal/domain/entity"
	"github.com/jhoicas/stock-control-api/internal/domain/repository"
)

// Store estado compartido por los tres repositorios en memoria.
type Store struct {
	mu         sync.Mutex
	seq        int64
	users      map[int64]entity.User
	categories map[int64]entity.Category
	products   map[int64]entity.Product

	// Fail, si no es nil, se devuelve en la siguiente escritura (y se limpia).
	Fail error
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		users:      map[int64]entity.User{},
		categories: map[int64]entity.Category{},
		products:   map[int64]entity.Product{},
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) takeFail() error {
	err := s.Fail
	s.Fail = nil
	return err
}

// Users repositorio de usuarios sobre s.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Categories repositorio de categorías sobre s.
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

// Products repositorio de productos sobre s.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }

// UserCount número de usuarios guardados.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type userRepo struct{ s *Store }

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) emailTaken(email string, except int64) bool {
	for _, u := range r.s.users {
		if u.ID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	if r.emailTaken(user.Email, 0) {
		return repository.ErrUniqueViolation
	}
	user.ID = r.s.nextID()
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	cur, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrUniqueViolation
	}
	cur.Name, cur.Email, cur.UpdatedAt = user.Name, user.Email, time.Now()
	r.s.users[user.ID] = cur
	user.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *userRepo) List(context.Context) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) FindByID(_ context.Context, id int64) (*entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *categoryRepo) count(id int64) int {
	n := 0
	for _, p := range r.s.products {
		if p.CategoryID == id {
			n++
		}
	}
	return n
}

func (r *categoryRepo) List(context.Context) ([]*entity.CategoryWithCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.CategoryWithCount, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, &entity.CategoryWithCount{Category: c, ProductCount: r.count(c.ID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) CountProducts(_ context.Context, id int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.count(id), nil
}

func (r *categoryRepo) Create(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	c.ID = r.s.nextID()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.categories[c.ID] = *c
	return nil
}

func (r *categoryRepo) Update(_ context.Context, c *entity.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	cur, ok := r.s.categories[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Description, cur.UpdatedAt = c.Name, c.Description, time.Now()
	r.s.categories[c.ID] = cur
	*c = cur
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	if r.count(id) > 0 {
		return repository.ErrForeignKeyViolation
	}
	delete(r.s.categories, id)
	return nil
}

type productRepo struct{ s *Store }

func (r *productRepo) withCategory(p entity.Product) *entity.Product {
	if c, ok := r.s.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	return &p
}

func (r *productRepo) FindByID(_ context.Context, id int64) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return r.withCategory(p), nil
}

func (r *productRepo) list(keep func(entity.Product) bool) []*entity.Product {
	out := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if keep(p) {
			out = append(out, r.withCategory(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(p entity.Product) bool {
		return f.CategoryID == 0 || p.CategoryID == f.CategoryID
	}), nil
}

func (r *productRepo) ListLowStock(context.Context) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(p entity.Product) bool { return p.Quantity <= p.MinStock }), nil
}

func (r *productRepo) check(p *entity.Product) error {
	for _, other := range r.s.products {
		if other.ID != p.ID && other.SKU == p.SKU {
			return repository.ErrUniqueViolation
		}
	}
	if _, ok := r.s.categories[p.CategoryID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	return nil
}

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	if err := r.check(p); err != nil {
		return err
	}
	p.ID = r.s.nextID()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.Category = nil
	r.s.products[p.ID] = stored
	*p = *r.withCategory(stored)
	return nil
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	cur, ok := r.s.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.check(p); err != nil {
		return err
	}
	stored := *p
	stored.Category = nil
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = time.Now()
	r.s.products[p.ID] = stored
	*p = *r.withCategory(stored)
	return nil
}

func (r *productRepo) UpdateQuantity(_ context.Context, id int64, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Quantity = quantity
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	return nil
}

func (r *productRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFail(); err != nil {
		return err
	}
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}
