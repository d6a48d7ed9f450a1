package library

import "fmt"

// MemberRepo wraps the file store with the member layout.
type MemberRepo struct {
	store *Store
}

func NewMemberRepo(path string) *MemberRepo {
	return &MemberRepo{store: &Store{Path: path, Layout: MemberLayout}}
}

// Create registers a member as ACTIVE with the given join date.
func (r *MemberRepo) Create(name, email, phone, joinDate string) (string, error) {
	if _, err := parseDate(joinDate); err != nil {
		return "", newPolicyError(CodeInvalidArgument, "join date %q is not %s", joinDate, dateFormat)
	}
	id, err := r.store.NextID()
	if err != nil {
		return "", err
	}
	member := &Member{
		ID: id, Name: name, Email: email, Phone: phone,
		JoinDate: joinDate, Status: MemberActive,
	}
	if err := r.store.Append(memberValues(member)); err != nil {
		return "", err
	}
	return id, nil
}

// FindByID returns the live member with the given id, or nil when absent.
func (r *MemberRepo) FindByID(id string) (*Member, error) {
	member, _, err := r.findLive(id)
	return member, err
}

// List returns members in file order, filtering soft-deleted records
// unless includeDeleted is set.
func (r *MemberRepo) List(includeDeleted bool) ([]*Member, error) {
	records, err := r.store.ReadAll()
	if err != nil {
		return nil, err
	}
	var members []*Member
	for _, values := range records {
		m := memberFromValues(values)
		if m.Deleted && !includeDeleted {
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

// Update rewrites the full record for member.ID in place.
func (r *MemberRepo) Update(member *Member) error {
	_, index, err := r.findLive(member.ID)
	if err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("update member %s: %w", member.ID, ErrNotFound)
	}
	return r.store.RewriteAt(index, memberValues(member))
}

// SetStatus flips the member between ACTIVE and SUSPENDED.
func (r *MemberRepo) SetStatus(id, status string) error {
	member, index, err := r.findLive(id)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("set status of member %s: %w", id, ErrNotFound)
	}
	member.Status = status
	return r.store.RewriteAt(index, memberValues(member))
}

// SoftDelete flags the record deleted. Returns false when no live record
// has the id.
func (r *MemberRepo) SoftDelete(id string) (bool, error) {
	member, index, err := r.findLive(id)
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, nil
	}
	member.Deleted = true
	if err := r.store.RewriteAt(index, memberValues(member)); err != nil {
		return false, err
	}
	return true, nil
}

func (r *MemberRepo) findLive(id string) (*Member, int, error) {
	index, err := r.store.FindIndex(func(v []string) bool {
		return v[mbID] == id && v[mbDeleted] == notDeleted
	})
	if err != nil || index < 0 {
		return nil, -1, err
	}
	values, err := r.store.ReadAt(index)
	if err != nil || values == nil {
		return nil, -1, err
	}
	return memberFromValues(values), index, nil
}
