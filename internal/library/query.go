package library

// attachmentQuery reconstructs one row per (attachment, creator) pair. Title and
// date come from the parent item's field values; only one field row per group
// matches each CASE, so MAX picks it. The %s slot takes optional extra filters.
const attachmentQuery = `
SELECT
    itemAttachments.parentItemID,
    MAX(CASE WHEN fields.fieldName = 'title' THEN itemDataValues.value END) AS title,
    'storage/' || attachmentItems.key || '/' || REPLACE(itemAttachments.path, 'storage:', '') AS path,
    IFNULL(creators.lastName, ''),
    IFNULL(creators.firstName, ''),
    IFNULL(MAX(CASE WHEN fields.fieldName = 'date' THEN itemDataValues.value END), ''),
    itemCreators.orderIndex
FROM itemAttachments
INNER JOIN items AS attachmentItems
    ON attachmentItems.itemID = itemAttachments.itemID
INNER JOIN items AS parentItems
    ON parentItems.itemID = itemAttachments.parentItemID
INNER JOIN itemCreators
    ON itemCreators.itemID = parentItems.itemID
INNER JOIN creators
    ON creators.creatorID = itemCreators.creatorID
INNER JOIN itemData
    ON itemData.itemID = parentItems.itemID
INNER JOIN itemDataValues
    ON itemDataValues.valueID = itemData.valueID
INNER JOIN fields
    ON fields.fieldID = itemData.fieldID
WHERE (itemAttachments.contentType LIKE '%%pdf'
       OR itemAttachments.contentType LIKE '%%djvu')
  AND itemAttachments.path IS NOT NULL
  AND fields.fieldName IN ('title', 'date')%s
GROUP BY itemAttachments.itemID, itemCreators.orderIndex
HAVING title IS NOT NULL
ORDER BY title, itemAttachments.itemID, itemCreators.orderIndex
`

// excludeTrashedFilter drops attachments and parents sitting in Zotero's trash.
const excludeTrashedFilter = `
  AND itemAttachments.itemID NOT IN (SELECT itemID FROM deletedItems)
  AND itemAttachments.parentItemID NOT IN (SELECT itemID FROM deletedItems)`
