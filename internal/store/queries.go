package store

// 表结构与线上库一致：
//
//	info(name, author, icon_src, short_desc, long_desc)
//	versions(id INTEGER PRIMARY KEY, name, link, version, changelog)
//
// versions.id 单调递增，作为“最新版本”的依据。
const (
	queryCatalog = `
SELECT info.name, COALESCE(info.author, ''), COALESCE(info.icon_src, ''), COALESCE(info.short_desc, '')
FROM info INNER JOIN versions ON info.name = versions.name
GROUP BY info.name
ORDER BY MAX(versions.id) DESC, info.name ASC`

	queryDetails = `
SELECT name, COALESCE(author, ''), COALESCE(icon_src, ''), COALESCE(long_desc, '')
FROM info`

	queryVersions = `
SELECT id, name, link, version, COALESCE(changelog, '')
FROM versions`
)
