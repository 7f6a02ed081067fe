package postgres

const lockPolaritySQL = `
SELECT polarity FROM reactions
WHERE user_id = $1 AND target_type = $2 AND target_id = $3
FOR UPDATE
`

const getPolaritySQL = `
SELECT polarity FROM reactions
WHERE user_id = $1 AND target_type = $2 AND target_id = $3
`

const insertReactionSQL = `
INSERT INTO reactions (user_id, target_type, target_id, polarity, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, target_type, target_id) DO NOTHING
`

const deleteReactionSQL = `
DELETE FROM reactions
WHERE user_id = $1 AND target_type = $2 AND target_id = $3 AND polarity = $4
`

const switchReactionSQL = `
UPDATE reactions SET polarity = $5, created_at = $6
WHERE user_id = $1 AND target_type = $2 AND target_id = $3 AND polarity = $4
`

const countReactionsSQL = `
SELECT
  COUNT(*) FILTER (WHERE polarity = 'like'),
  COUNT(*) FILTER (WHERE polarity = 'dislike')
FROM reactions
WHERE target_type = $1 AND target_id = $2
`

const countReactionsBatchSQL = `
SELECT target_id,
  COUNT(*) FILTER (WHERE polarity = 'like'),
  COUNT(*) FILTER (WHERE polarity = 'dislike')
FROM reactions
WHERE target_type = $1 AND target_id = ANY($2::uuid[])
GROUP BY target_id
`

const listReactedVideosSQL = `
SELECT v.id, v.title, v.thumbnail_ref, v.owner_id, COALESCE(u.display_name, ''),
       r.polarity, r.created_at
FROM reactions r
JOIN videos v ON v.id = r.target_id
LEFT JOIN users u ON u.id = v.owner_id
WHERE r.user_id = $1 AND r.target_type = 'video' AND r.polarity = $2
ORDER BY r.created_at DESC, v.id ASC
LIMIT $3
`

const deleteByTargetSQL = `
DELETE FROM reactions WHERE target_type = $1 AND target_id = $2
`

const videoColumns = `id, title, description, owner_id, is_published, created_at,
       view_count, duration_seconds, thumbnail_ref`

const getVideoSQL = `
SELECT ` + videoColumns + `
FROM videos WHERE id = $1
`

const getOwnersSQL = `
SELECT u.id, u.display_name, u.avatar_ref,
       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)
FROM users u
WHERE u.id = ANY($1::uuid[])
`

const watchedAmongSQL = `
SELECT DISTINCT video_id FROM watch_history
WHERE user_id = $1 AND video_id = ANY($2::uuid[])
`

var targetExistsSQL = map[string]string{
	"video":   `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`,
	"comment": `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`,
	"tweet":   `SELECT EXISTS (SELECT 1 FROM tweets WHERE id = $1)`,
}
