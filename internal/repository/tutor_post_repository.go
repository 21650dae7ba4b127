package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gatortutors/gator-tutors-api/internal/models"
)

const tutorPostColumns = "tp.id, tp.user_id, tp.display_name, tp.bio, tp.hourly_rate, tp.contact_info, tp.experience, tp.availability, tp.profile_photo, tp.profile_video, tp.resume_pdf, tp.approved, tp.created_at, tp.updated_at, u.email AS owner_email"

// TutorPostRepository manages persistence for tutor listings.
type TutorPostRepository struct {
	db *sqlx.DB
}

// NewTutorPostRepository constructs a TutorPostRepository.
func NewTutorPostRepository(db *sqlx.DB) *TutorPostRepository {
	return &TutorPostRepository{db: db}
}

// Search returns listings matching the filter along with the total match
// count. Every supplied filter field adds one AND clause; absent fields add
// nothing, so an empty filter is a plain scan. The count query and the fetch
// query share the same predicate set. Each returned view carries its subjects
// and owner email, loaded in a single batch query for the page.
func (r *TutorPostRepository) Search(ctx context.Context, filter models.TutorPostFilter) ([]models.TutorPostView, int, error) {
	base := "FROM tutor_posts tp JOIN users u ON u.id = tp.user_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ApprovedOnly {
		conditions = append(conditions, "tp.approved = TRUE")
	}
	if filter.TextQuery != "" {
		needle := "%" + strings.ToLower(filter.TextQuery) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(tp.display_name) LIKE $%d OR LOWER(tp.bio) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, needle)
	}
	if filter.SubjectName != "" {
		// Existential match: the listing teaches at least one subject with
		// exactly this name.
		conditions = append(conditions, fmt.Sprintf("tp.id IN (SELECT ts.tutor_post_id FROM tutor_subjects ts JOIN subjects s ON s.id = ts.subject_id WHERE s.name = $%d)", len(args)+1))
		args = append(args, filter.SubjectName)
	}
	if filter.MinRate != nil {
		conditions = append(conditions, fmt.Sprintf("tp.hourly_rate >= $%d", len(args)+1))
		args = append(args, *filter.MinRate)
	}
	if filter.MaxRate != nil {
		conditions = append(conditions, fmt.Sprintf("tp.hourly_rate <= $%d", len(args)+1))
		args = append(args, *filter.MaxRate)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	// Price sorts tie-break on created_at so page boundaries stay stable.
	var order string
	switch filter.Sort {
	case models.SortPriceAsc:
		order = "tp.hourly_rate ASC, tp.created_at DESC"
	case models.SortPriceDesc:
		order = "tp.hourly_rate DESC, tp.created_at DESC"
	default:
		order = "tp.created_at DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tutor posts: %w", err)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", tutorPostColumns, base, order, size, offset)
	var posts []models.TutorPostView
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search tutor posts: %w", err)
	}

	if err := r.attachSubjects(ctx, posts); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// FindByID fetches a single listing view with subjects and owner email.
func (r *TutorPostRepository) FindByID(ctx context.Context, id string) (*models.TutorPostView, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_posts tp JOIN users u ON u.id = tp.user_id WHERE tp.id = $1", tutorPostColumns)
	var post models.TutorPostView
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, err
	}
	views := []models.TutorPostView{post}
	if err := r.attachSubjects(ctx, views); err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListByOwner returns all listings owned by a user, newest first, including
// unapproved ones.
func (r *TutorPostRepository) ListByOwner(ctx context.Context, userID string) ([]models.TutorPostView, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_posts tp JOIN users u ON u.id = tp.user_id WHERE tp.user_id = $1 ORDER BY tp.created_at DESC", tutorPostColumns)
	var posts []models.TutorPostView
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("list tutor posts by owner: %w", err)
	}
	if err := r.attachSubjects(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPending returns unapproved listings awaiting moderation, oldest first
// so the queue is worked in arrival order.
func (r *TutorPostRepository) ListPending(ctx context.Context) ([]models.TutorPostView, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_posts tp JOIN users u ON u.id = tp.user_id WHERE tp.approved = FALSE ORDER BY tp.created_at ASC", tutorPostColumns)
	var posts []models.TutorPostView
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list pending tutor posts: %w", err)
	}
	if err := r.attachSubjects(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListApproved returns every approved listing, newest first. Used for the
// admin export; result sets are small enough to skip pagination.
func (r *TutorPostRepository) ListApproved(ctx context.Context) ([]models.TutorPostView, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_posts tp JOIN users u ON u.id = tp.user_id WHERE tp.approved = TRUE ORDER BY tp.created_at DESC", tutorPostColumns)
	var posts []models.TutorPostView
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list approved tutor posts: %w", err)
	}
	if err := r.attachSubjects(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountByOwner reports how many listings a user owns.
func (r *TutorPostRepository) CountByOwner(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tutor_posts WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count tutor posts by owner: %w", err)
	}
	return count, nil
}

// Create inserts a listing and its subject relations in one transaction.
func (r *TutorPostRepository) Create(ctx context.Context, post *models.TutorPost, subjectIDs []int) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	if post.Availability == nil {
		post.Availability = models.Availability{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tutor post: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO tutor_posts (id, user_id, display_name, bio, hourly_rate, contact_info, experience, availability, profile_photo, profile_video, resume_pdf, approved, created_at, updated_at)
		VALUES (:id, :user_id, :display_name, :bio, :hourly_rate, :contact_info, :experience, :availability, :profile_photo, :profile_video, :resume_pdf, :approved, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create tutor post: %w", err)
	}

	if err := insertSubjects(ctx, tx, post.ID, subjectIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create tutor post: %w", err)
	}
	return nil
}

// Update modifies a listing and, when subjectIDs is non-nil, replaces its
// subject relations.
func (r *TutorPostRepository) Update(ctx context.Context, post *models.TutorPost, subjectIDs []int) error {
	post.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tutor post: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE tutor_posts SET display_name = :display_name, bio = :bio, hourly_rate = :hourly_rate, contact_info = :contact_info, experience = :experience, availability = :availability, profile_photo = :profile_photo, profile_video = :profile_video, resume_pdf = :resume_pdf, approved = :approved, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update tutor post: %w", err)
	}

	if subjectIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tutor_subjects WHERE tutor_post_id = $1`, post.ID); err != nil {
			return fmt.Errorf("clear tutor post subjects: %w", err)
		}
		if err := insertSubjects(ctx, tx, post.ID, subjectIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update tutor post: %w", err)
	}
	return nil
}

// Delete removes a listing; subject relations cascade via FK.
func (r *TutorPostRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tutor_posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tutor post: %w", err)
	}
	return nil
}

// SetApproval flips the moderation flag on a listing.
func (r *TutorPostRepository) SetApproval(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE tutor_posts SET approved = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("set tutor post approval: %w", err)
	}
	return nil
}

type postSubjectRow struct {
	TutorPostID string `db:"tutor_post_id"`
	ID          int    `db:"id"`
	Name        string `db:"name"`
}

// attachSubjects loads the subjects for every view in one query and fills
// them in place, so callers never issue per-row lookups.
func (r *TutorPostRepository) attachSubjects(ctx context.Context, posts []models.TutorPostView) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(posts))
	for i := range posts {
		posts[i].Subjects = []models.Subject{}
		ids = append(ids, posts[i].ID)
	}

	const query = `SELECT ts.tutor_post_id, s.id, s.name FROM tutor_subjects ts JOIN subjects s ON s.id = ts.subject_id WHERE ts.tutor_post_id = ANY($1) ORDER BY s.name ASC`
	var rows []postSubjectRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load tutor post subjects: %w", err)
	}

	byPost := make(map[string][]models.Subject, len(posts))
	for _, row := range rows {
		byPost[row.TutorPostID] = append(byPost[row.TutorPostID], models.Subject{ID: row.ID, Name: row.Name})
	}
	for i := range posts {
		if subjects, ok := byPost[posts[i].ID]; ok {
			posts[i].Subjects = subjects
		}
	}
	return nil
}

func insertSubjects(ctx context.Context, tx *sqlx.Tx, postID string, subjectIDs []int) error {
	seen := make(map[int]struct{}, len(subjectIDs))
	unique := make([]int, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Ints(unique)

	for _, subjectID := range unique {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tutor_subjects (tutor_post_id, subject_id) VALUES ($1, $2)`, postID, subjectID); err != nil {
			return fmt.Errorf("link tutor post subject %d: %w", subjectID, err)
		}
	}
	return nil
}
